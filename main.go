package main

import "github.com/mikesmitty/dewalert/cmd"

func main() {
	cmd.Execute()
}
