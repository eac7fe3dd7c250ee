package main

import "github.com/CosmoTheDev/ctrlreport/cmd"

func main() {
	cmd.Execute()
}
