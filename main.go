package main

import "gitpr.dev/gitpr/cmd"

func main() {
	cmd.Execute()
}
