package main

import "github.com/crystaldolphin/pillpal/cmd"

func main() {
	cmd.Execute()
}
