package main

import (
	"fmt"
	"os"
	"time"

	"github.com/axiomesh/governor"
	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.NewApp()
	app.Name = "Governor"
	app.Usage = "Token-weighted governance for a community of stake holders"
	app.Compiled = time.Now()

	cli.VersionPrinter = func(c *cli.Context) {
		printVersion()
	}

	// global flags
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:  "repo",
			Usage: "Governor storage repo path",
		},
	}

	app.Commands = []*cli.Command{
		configCMD,
		proposalCMD,
		depositCMD,
		voteCMD,
		withdrawCMD,
		finishCMD,
		accountCMD,
		tokenCMD,
		{
			Name:    "version",
			Aliases: []string{"v"},
			Usage:   "Governor version",
			Action: func(ctx *cli.Context) error {
				printVersion()
				return nil
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("Governor version: %s-%s-%s\n", governor.CurrentVersion, governor.CurrentBranch, governor.CurrentCommit)
	fmt.Printf("App build date: %s\n", governor.BuildDate)
	fmt.Printf("System version: %s\n", governor.Platform)
	fmt.Printf("Golang version: %s\n", governor.GoVersion)
	fmt.Println()
}
