package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/a-h/jarvik/models"
)

type KnowledgeCommand struct {
	ClientFlags `embed:""`
	Query       []string `arg:"" help:"What to search for."`
}

func (c KnowledgeCommand) Run(ctx context.Context) (err error) {
	s, _, err := c.loadLoggedIn()
	if err != nil {
		return err
	}
	resp, err := c.client().Knowledge(ctx, models.KnowledgeRequest{
		Credentials: s.Credentials(),
		Query:       strings.Join(c.Query, " "),
	})
	if err != nil {
		return err
	}
	fmt.Println(formatJSON(resp))
	return nil
}

type CrawlCommand struct {
	ClientFlags `embed:""`
	URL         string `arg:"" help:"The URL to crawl."`
}

func (c CrawlCommand) Run(ctx context.Context) (err error) {
	s, _, err := c.loadLoggedIn()
	if err != nil {
		return err
	}
	resp, err := c.client().Crawl(ctx, models.CrawlRequest{
		Credentials: s.Credentials(),
		URL:         c.URL,
	})
	if err != nil {
		return err
	}
	fmt.Println(formatJSON(resp))
	return nil
}
