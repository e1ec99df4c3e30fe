package main

import "github.com/metal-stack/dhcptool/cli"

func main() {
	cli.CLI()
}
