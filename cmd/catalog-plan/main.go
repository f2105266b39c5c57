// catalog-plan validates a topology manifest and renders the least-privilege
// policy document implied by it.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/filmstack/catalog/internal/security"
	"github.com/filmstack/catalog/internal/topology"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "catalog-plan",
		Usage: "validate the catalog topology and render its policy document",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "topology",
				Value: "topology.yaml",
				Usage: "path to the topology manifest",
			},
			&cli.StringFlag{
				Name:     "region",
				Required: true,
				Usage:    "region used to render resource ARNs",
			},
			&cli.StringFlag{
				Name:     "account",
				Required: true,
				Usage:    "account ID used to render resource ARNs",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	data, err := os.ReadFile(cmd.String("topology"))
	if err != nil {
		return fmt.Errorf("read topology: %w", err)
	}

	doc, err := topology.Parse(data)
	if err != nil {
		return err
	}

	caps, err := security.NewCapabilitySet(doc.Table.Name, doc.AccessLog.QueueName, doc.Route.Target+"-traces")
	if err != nil {
		return err
	}

	policy, err := caps.PolicyDocument(cmd.String("region"), cmd.String("account"))
	if err != nil {
		return err
	}

	fmt.Printf("route:  %s %s -> %s\n", doc.Route.Method, doc.Route.Path, doc.Route.Target)
	fmt.Printf("table:  %s (%s, %s)\n", doc.Table.Name, doc.Table.PartitionKey.Name, doc.Table.SortKey.Name)
	if doc.Domain.Hostname != "" {
		fmt.Printf("domain: %s -> %s\n", doc.Domain.Hostname, doc.Domain.EndpointTarget)
	}
	fmt.Printf("logs:   %s, retained %d days\n", doc.AccessLog.QueueName, doc.AccessLog.RetentionDays)
	fmt.Printf("\n%s\n", policy)
	return nil
}
