package main

import (
	"fmt"
	"os"

	"github.com/axiomesh/governor/repo"
	"github.com/urfave/cli/v2"
)

var configCMD = &cli.Command{
	Name:  "config",
	Usage: "The config manage commands",
	Subcommands: []*cli.Command{
		{
			Name:   "generate",
			Usage:  "Generate default config",
			Action: generate,
		},
		{
			Name:   "show",
			Usage:  "Show the complete config processed by the environment variable",
			Action: show,
		},
		{
			Name:   "check",
			Usage:  "Check if the config file is valid",
			Action: check,
		},
		{
			Name:   "rewrite-with-env",
			Usage:  "Rewrite config with env",
			Action: rewriteWithEnv,
		},
	},
}

func generate(ctx *cli.Context) error {
	p, err := getRootPath(ctx)
	if err != nil {
		return err
	}
	if repo.Exist(p) {
		fmt.Println("governor repo already exists")
		return nil
	}
	if err := os.MkdirAll(p, 0755); err != nil {
		return err
	}

	r := &repo.Repo{Config: repo.DefaultConfig(p)}
	if err := r.Flush(); err != nil {
		return err
	}

	fmt.Printf("initializing governor at %s\n", p)
	return nil
}

// existingRepo loads the repo, or returns nil when it has not been generated yet.
func existingRepo(ctx *cli.Context) (*repo.Repo, error) {
	p, err := getRootPath(ctx)
	if err != nil {
		return nil, err
	}
	if !repo.Exist(p) {
		fmt.Println("governor repo not exist")
		return nil, nil
	}
	return repo.Load(p)
}

func show(ctx *cli.Context) error {
	r, err := existingRepo(ctx)
	if err != nil || r == nil {
		return err
	}
	str, err := repo.MarshalConfig(r.Config)
	if err != nil {
		return err
	}
	fmt.Println(str)
	return nil
}

func check(ctx *cli.Context) error {
	r, err := existingRepo(ctx)
	if err != nil {
		return cli.Exit(fmt.Sprintf("config file format error, please check: %s", err), 1)
	}
	if r != nil {
		fmt.Println("config is valid")
	}
	return nil
}

func rewriteWithEnv(ctx *cli.Context) error {
	r, err := existingRepo(ctx)
	if err != nil || r == nil {
		return err
	}
	return r.Flush()
}

func getRootPath(ctx *cli.Context) (string, error) {
	return repo.LoadRepoRootFromEnv(ctx.String("repo"))
}
