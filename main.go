package main

import "github.com/commercia/access-management/cmd"

func main() {
	cmd.Execute()
}
