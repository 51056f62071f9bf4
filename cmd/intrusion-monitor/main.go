package main

import "github.com/oshokin/zone-intrusion/cmd/intrusion-monitor/cmd"

func main() {
	cmd.Execute()
}
