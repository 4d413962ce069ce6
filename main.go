package main

import "github.com/mihaisavezi/llmgateway/cmd"

func main() {
	cmd.Execute()
}
