package main

import "github.com/kairoscal/server/cmd"

func main() {
	cmd.Execute()
}
