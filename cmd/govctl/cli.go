package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"govtwool/internal/domain"
	"govtwool/internal/drepid"
	"govtwool/internal/indexer"
	"govtwool/internal/jsonvalue"
	"govtwool/internal/metadata"
	"govtwool/internal/rationale"
	"govtwool/internal/service"
)

// newCLIApp crea la aplicacion con todos los comandos.
func newCLIApp() *cli.App {
	app := &cli.App{
		Name:    "govctl",
		Usage:   "Governance metadata tooling",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Usage: "Log to stdout"},
		},
		Commands: []*cli.Command{
			profileCmd(),
			decodeBytesCmd(),
			rationaleCmd(),
			drepIDCmd(),
			drepsCmd(),
			adminTokenCmd(),
		},
	}
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func loggerFor(c *cli.Context) *zap.Logger {
	if c.Bool("verbose") {
		return zap.NewExample()
	}
	return zap.NewNop()
}

// readInput lee el archivo indicado, o stdin si es "-" o falta.
func readInput(c *cli.Context, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(c.App.Reader)
	}
	return os.ReadFile(path)
}

func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func profileCmd() *cli.Command {
	return &cli.Command{
		Name:      "profile",
		Usage:     "Canonicalize a metadata document",
		ArgsUsage: "[file|-]",
		Action: func(c *cli.Context) error {
			raw, err := readInput(c, c.Args().First())
			if err != nil {
				return err
			}
			v, err := jsonvalue.Decode(raw)
			if err != nil {
				return fmt.Errorf("parse metadata: %w", err)
			}
			layout := metadata.Inspect(v)
			p := metadata.ExtractProfile(v)

			locations := make([]string, 0, len(layout.Bodies)+len(layout.Flat))
			for _, cand := range append(layout.Bodies, layout.Flat...) {
				locations = append(locations, cand.Location.String())
			}
			return outputJSON(c, map[string]any{
				"standard":    string(layout.Standard),
				"locations":   locations,
				"has_bytes":   layout.Bytes != "",
				"has_profile": p.IsPresent(),
				"profile":     p,
			})
		},
	}
}

func decodeBytesCmd() *cli.Command {
	return &cli.Command{
		Name:      "decode-bytes",
		Usage:     "Decode a hex byte string holding JSON",
		ArgsUsage: "<hex>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one hex argument")
			}
			v, ok := metadata.DecodeBytes(c.Args().First())
			if !ok {
				return fmt.Errorf("input is not hex-encoded JSON")
			}
			return outputJSON(c, v)
		},
	}
}

func rationaleCmd() *cli.Command {
	return &cli.Command{
		Name:  "rationale",
		Usage: "Build a rationale document from fields JSON (stdin or --file)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "standard", Aliases: []string{"s"}, Value: "cip136", Usage: "cip136|cip108"},
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Fields JSON file"},
			&cli.BoolFlag{Name: "anchor", Usage: "Print the anchor instead of the document"},
		},
		Action: func(c *cli.Context) error {
			std, err := rationale.ParseStandard(c.String("standard"))
			if err != nil {
				return err
			}
			raw, err := readInput(c, c.String("file"))
			if err != nil {
				return err
			}
			var fields rationale.Fields
			if err := json.Unmarshal(raw, &fields); err != nil {
				return fmt.Errorf("parse fields: %w", err)
			}
			doc, err := rationale.Build(std, fields)
			if err != nil {
				return err
			}
			if c.Bool("anchor") {
				anchor, err := rationale.ComputeAnchor(doc)
				if err != nil {
					return err
				}
				return outputJSON(c, anchor)
			}
			pretty, err := doc.Indent()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.App.Writer, string(pretty))
			return err
		},
	}
}

func drepIDCmd() *cli.Command {
	return &cli.Command{
		Name:      "drep-id",
		Usage:     "Show a DRep id in every encoding",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			in := c.Args().First()
			if drepid.IsSpecial(in) {
				return outputJSON(c, map[string]string{"id": in, "label": drepid.FallbackLabel(in)})
			}
			id, err := drepid.Parse(in)
			if err != nil {
				return err
			}
			cip129, err := id.CIP129()
			if err != nil {
				return err
			}
			cip105, err := id.CIP105()
			if err != nil {
				return err
			}
			return outputJSON(c, map[string]any{
				"cip129": cip129,
				"cip105": cip105,
				"hex":    id.Hex(),
				"script": id.Script,
				"label":  drepid.FallbackLabel(cip129),
			})
		},
	}
}

func drepsCmd() *cli.Command {
	return &cli.Command{
		Name:  "dreps",
		Usage: "List a page of DReps with resolved labels",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "indexer", EnvVars: []string{"INDEXER_BASE_URL"}, Required: true},
			&cli.StringFlag{Name: "api-key", EnvVars: []string{"INDEXER_API_KEY"}},
			&cli.StringFlag{Name: "gateway", EnvVars: []string{"IPFS_GATEWAY"}, Value: indexer.DefaultIPFSGateway},
			&cli.IntFlag{Name: "page", Value: 1},
			&cli.IntFlag{Name: "page-size", Value: 20},
			&cli.StringFlag{Name: "search"},
			&cli.StringSliceFlag{Name: "status"},
			&cli.DurationFlag{Name: "timeout", Value: 30 * time.Second},
			&cli.BoolFlag{Name: "json", Usage: "Print JSON instead of a table"},
		},
		Action: func(c *cli.Context) error {
			logger := loggerFor(c)
			client := indexer.NewHTTPClient(indexer.Config{
				BaseURL: c.String("indexer"),
				APIKey:  c.String("api-key"),
			}, nil, logger)
			anchors := indexer.NewAnchorFetcher(c.String("gateway"), 0, 0, nil, logger)
			dir := service.NewDirectory(service.Sources{
				DReps: client, DRepMetadata: client, Anchors: anchors,
			}, nil, logger, 8, c.Duration("timeout"))

			lc := service.NewListController(dir, domain.KindDRep)
			defer lc.Close()

			ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
			defer cancel()
			if _, err := lc.Load(ctx, domain.PageQuery{
				Page:     c.Int("page"),
				PageSize: c.Int("page-size"),
				Search:   c.String("search"),
				Statuses: c.StringSlice("status"),
			}); err != nil {
				return err
			}
			page, err := lc.Settle(ctx)
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return outputJSON(c, page)
			}
			return printEntities(c.App.Writer, page)
		},
	}
}

func printEntities(w io.Writer, page domain.Page) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPROFILE\tVOTING POWER")
	for _, e := range page.Entities {
		profile := "-"
		if e.HasProfile != nil {
			profile = fmt.Sprint(*e.HasProfile)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", drepid.FallbackLabel(e.ID), e.DisplayName, profile, e.VotingPower)
	}
	if page.HasMore {
		fmt.Fprintln(tw, "…\t\t\t")
	}
	return tw.Flush()
}

func adminTokenCmd() *cli.Command {
	return &cli.Command{
		Name:  "admin-token",
		Usage: "Issue an admin token for the cache administration routes",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "secret", EnvVars: []string{"ADMIN_JWT_SECRET"}, Required: true},
			&cli.StringFlag{Name: "subject", Value: "govctl"},
			&cli.DurationFlag{Name: "ttl", Value: time.Hour},
		},
		Action: func(c *cli.Context) error {
			token, err := service.NewAdminTokenService(c.String("secret"), c.Duration("ttl")).Issue(strings.TrimSpace(c.String("subject")))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.App.Writer, token)
			return err
		},
	}
}
