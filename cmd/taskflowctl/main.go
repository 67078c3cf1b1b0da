package main

import "taskflow/cmd/taskflowctl/root"

func main() {
	root.Execute()
}
