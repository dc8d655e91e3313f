package main

import "uav-log-analyzer/internal/cli"

func main() {
	cli.Execute()
}
