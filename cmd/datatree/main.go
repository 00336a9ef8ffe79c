// Copyright © 2024 Datatree Authors

package main

import (
	"github.com/datatree/datatree/cmd/datatree/cmd"
)

func main() {
	cmd.Execute()
}
