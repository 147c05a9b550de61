package main

import "github.com/solatech/solar-commerce/cmd"

func main() {
	cmd.Execute()
}
