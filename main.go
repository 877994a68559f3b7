package main

import "github.com/user/thesisherald/cmd"

func main() {
	cmd.Execute()
}
