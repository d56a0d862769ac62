package main

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/urfave/cli/v2"
)

var fromFlag = &cli.StringFlag{
	Name:     "from",
	Usage:    "Address of the account sending the call",
	Required: true,
}

var proposalCMD = &cli.Command{
	Name:  "proposal",
	Usage: "The proposal manage commands",
	Subcommands: []*cli.Command{
		{
			Name:  "add",
			Usage: "Add proposal, chair only",
			Flags: []cli.Flag{
				fromFlag,
				&cli.StringFlag{Name: "contr", Usage: "Contract address", Required: true},
				&cli.StringFlag{Name: "func", Usage: "Function signature, e.g. mint(address,uint256)", Required: true},
				&cli.StringFlag{Name: "desc", Usage: "Description"},
			},
			Action: addProposal,
		},
		{
			Name:  "show",
			Usage: "Show proposal",
			Flags: []cli.Flag{
				&cli.Uint64Flag{Name: "proposal", Usage: "The proposal ID", Required: true},
			},
			Action: showProposal,
		},
	},
}

var depositCMD = &cli.Command{
	Name:  "deposit",
	Usage: "Deposit token as voting stake",
	Flags: []cli.Flag{
		fromFlag,
		&cli.StringFlag{Name: "amount", Usage: "Token amount", Required: true},
	},
	Action: deposit,
}

var voteCMD = &cli.Command{
	Name:  "vote",
	Usage: "Vote on proposal with the whole deposited stake",
	Flags: []cli.Flag{
		fromFlag,
		&cli.Uint64Flag{Name: "proposal", Usage: "The proposal ID", Required: true},
		&cli.BoolFlag{Name: "choice", Usage: "The choice, --choice=false votes against", Value: true},
	},
	Action: vote,
}

var withdrawCMD = &cli.Command{
	Name:   "withdraw",
	Usage:  "Withdraw the whole deposited stake",
	Flags:  []cli.Flag{fromFlag},
	Action: withdraw,
}

var finishCMD = &cli.Command{
	Name:  "finish",
	Usage: "Finish proposal after its debate period",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "from", Usage: "Address of the account sending the call, chair by default"},
		&cli.Uint64Flag{Name: "proposal", Usage: "The proposal ID", Required: true},
		&cli.StringFlag{Name: "address", Usage: "The recipient address", Required: true},
		&cli.StringFlag{Name: "amount", Usage: "The token amount", Required: true},
	},
	Action: finish,
}

var accountCMD = &cli.Command{
	Name:  "account",
	Usage: "Show deposited stake and pending votes of an account",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "address", Usage: "Account address", Required: true},
	},
	Action: showAccount,
}

var tokenCMD = &cli.Command{
	Name:  "token",
	Usage: "The local token commands",
	Subcommands: []*cli.Command{
		{
			Name:  "mint",
			Usage: "Mint token to an account",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "to", Usage: "Recipient address", Required: true},
				&cli.StringFlag{Name: "amount", Usage: "Token amount", Required: true},
			},
			Action: mintToken,
		},
		{
			Name:  "approve",
			Usage: "Allow the governor to pull token from an account",
			Flags: []cli.Flag{
				fromFlag,
				&cli.StringFlag{Name: "amount", Usage: "Token amount", Required: true},
			},
			Action: approveToken,
		},
		{
			Name:  "balance",
			Usage: "Show token balance",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "address", Usage: "Account address", Required: true},
			},
			Action: tokenBalance,
		},
	},
}

func parseAddress(ctx *cli.Context, name string) (common.Address, error) {
	s := ctx.String(name)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid %s address: %q", name, s)
	}
	return common.HexToAddress(s), nil
}

func parseAmount(ctx *cli.Context, name string) (*big.Int, error) {
	s := ctx.String(name)
	amount, ok := math.ParseBig256(s)
	if !ok {
		return nil, fmt.Errorf("invalid %s: %q", name, s)
	}
	return amount, nil
}

// withNode opens the node, runs fn and prints the events it produced.
func withNode(ctx *cli.Context, withRemote bool, fn func(n *node) error) error {
	n, err := openNode(ctx, withRemote)
	if err != nil {
		return err
	}
	defer n.Close()

	if err := fn(n); err != nil {
		return err
	}
	n.printEvents()
	return nil
}

func addProposal(ctx *cli.Context) error {
	from, err := parseAddress(ctx, "from")
	if err != nil {
		return err
	}
	target, err := parseAddress(ctx, "contr")
	if err != nil {
		return err
	}

	return withNode(ctx, false, func(n *node) error {
		id, err := n.dao.RaiseProposal(from, target, ctx.String("func"), ctx.String("desc"))
		if err != nil {
			return fmt.Errorf("add proposal: %w", err)
		}
		fmt.Printf("proposal %d added\n", id)
		return nil
	})
}

func showProposal(ctx *cli.Context) error {
	return withNode(ctx, false, func(n *node) error {
		p, err := n.dao.Proposal(ctx.Uint64("proposal"))
		if err != nil {
			return err
		}
		fmt.Printf("id: %d\n", p.ID)
		fmt.Printf("target: %s\n", p.Target.Hex())
		fmt.Printf("function: %s\n", p.Selector)
		fmt.Printf("description: %s\n", p.Description)
		fmt.Printf("votes for: %s\n", p.VotesFor)
		fmt.Printf("votes against: %s\n", p.VotesAgainst)
		fmt.Printf("deadline: %d\n", p.Deadline)
		fmt.Printf("finished: %v\n", p.Resolved)
		return nil
	})
}

func deposit(ctx *cli.Context) error {
	from, err := parseAddress(ctx, "from")
	if err != nil {
		return err
	}
	amount, err := parseAmount(ctx, "amount")
	if err != nil {
		return err
	}

	return withNode(ctx, false, func(n *node) error {
		if err := n.dao.Deposit(ctx.Context, from, amount); err != nil {
			return fmt.Errorf("deposit: %w", err)
		}
		return nil
	})
}

func vote(ctx *cli.Context) error {
	from, err := parseAddress(ctx, "from")
	if err != nil {
		return err
	}

	return withNode(ctx, false, func(n *node) error {
		if err := n.dao.Vote(from, ctx.Uint64("proposal"), ctx.Bool("choice")); err != nil {
			return fmt.Errorf("vote: %w", err)
		}
		return nil
	})
}

func withdraw(ctx *cli.Context) error {
	from, err := parseAddress(ctx, "from")
	if err != nil {
		return err
	}

	return withNode(ctx, false, func(n *node) error {
		if _, err := n.dao.Withdraw(ctx.Context, from); err != nil {
			return fmt.Errorf("withdraw: %w", err)
		}
		return nil
	})
}

func finish(ctx *cli.Context) error {
	recipient, err := parseAddress(ctx, "address")
	if err != nil {
		return err
	}
	amount, err := parseAmount(ctx, "amount")
	if err != nil {
		return err
	}

	return withNode(ctx, true, func(n *node) error {
		from := n.dao.Chair()
		if ctx.IsSet("from") {
			if from, err = parseAddress(ctx, "from"); err != nil {
				return err
			}
		}
		if err := n.dao.ResolveProposal(ctx.Context, from, ctx.Uint64("proposal"), recipient, amount); err != nil {
			return fmt.Errorf("finish proposal: %w", err)
		}
		return nil
	})
}

func showAccount(ctx *cli.Context) error {
	addr, err := parseAddress(ctx, "address")
	if err != nil {
		return err
	}

	return withNode(ctx, false, func(n *node) error {
		acc, err := n.dao.Account(addr)
		if err != nil {
			return err
		}
		fmt.Printf("deposited: %s\n", acc.Balance)
		fmt.Printf("pending votes: %v\n", acc.PendingVotes)
		return nil
	})
}

func mintToken(ctx *cli.Context) error {
	to, err := parseAddress(ctx, "to")
	if err != nil {
		return err
	}
	amount, err := parseAmount(ctx, "amount")
	if err != nil {
		return err
	}

	return withNode(ctx, false, func(n *node) error {
		return n.token.Mint(to, amount)
	})
}

func approveToken(ctx *cli.Context) error {
	from, err := parseAddress(ctx, "from")
	if err != nil {
		return err
	}
	amount, err := parseAmount(ctx, "amount")
	if err != nil {
		return err
	}

	return withNode(ctx, false, func(n *node) error {
		return n.token.Approve(from, n.dao.Address(), amount)
	})
}

func tokenBalance(ctx *cli.Context) error {
	addr, err := parseAddress(ctx, "address")
	if err != nil {
		return err
	}

	return withNode(ctx, false, func(n *node) error {
		fmt.Printf("%s %s\n", n.token.BalanceOf(addr), n.token.Symbol())
		return nil
	})
}
