package main

import "github.com/jsonharvest/crawler/cmd"

func main() {
	cmd.Execute()
}
