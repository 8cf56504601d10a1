package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) seed() error {
	res, err := cli.bookingSvc.SeedReferenceData(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("created %d location(s) & %d exam(s)\n", res.Locations, res.Exams)
	return nil
}
