// Command domquery runs DOM queries and query flows against HTML documents.
package main

import "github.com/devicelab-dev/domquery/pkg/cli"

func main() {
	cli.Execute()
}
