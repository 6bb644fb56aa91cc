package main

import "app/cmd"

func main() {
	cmd.Execute()
}
