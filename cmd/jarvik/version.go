package main

import (
	"context"
	"fmt"

	"github.com/a-h/jarvik"
)

type VersionCommand struct {
}

func (c VersionCommand) Run(ctx context.Context) (err error) {
	fmt.Println(jarvik.Version)
	return nil
}
