package main

import "github.com/torontotech/meetups/internal/cli"

func main() {
	cli.Execute()
}
