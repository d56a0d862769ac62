package main

import (
	"fmt"
	"path/filepath"

	"github.com/axiomesh/axiom-kit/log"
	"github.com/axiomesh/axiom-kit/storage/leveldb"
	"github.com/axiomesh/governor/core"
	"github.com/axiomesh/governor/evm"
	"github.com/axiomesh/governor/host"
	"github.com/axiomesh/governor/repo"
	"github.com/axiomesh/governor/state"
	"github.com/axiomesh/governor/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// node is the governor with its local token, opened on the repo storage.
type node struct {
	repo   *repo.Repo
	logger *logrus.Logger
	store  *state.Store
	token  *token.Token
	dao    *core.Governor

	events chan core.Event
	sub    event.Subscription
}

// openNode loads the repo and opens its state. The remote chain is dialed only when
// withRemote is set and enabled in the config.
func openNode(ctx *cli.Context, withRemote bool) (*node, error) {
	p, err := getRootPath(ctx)
	if err != nil {
		return nil, err
	}
	r, err := repo.Load(p)
	if err != nil {
		return nil, err
	}

	err = log.Initialize(
		log.WithReportCaller(r.Config.Log.ReportCaller),
		log.WithPersist(true),
		log.WithFilePath(filepath.Join(r.Config.RepoRoot, repo.LogsDirName)),
		log.WithFileName(r.Config.Log.Filename),
		log.WithMaxAge(r.Config.Log.MaxAge),
		log.WithRotationTime(r.Config.Log.RotationTime),
	)
	if err != nil {
		return nil, fmt.Errorf("log initialize: %w", err)
	}
	logger := log.New()
	logger.SetLevel(log.ParseLevel(r.Config.Log.Level))

	db, err := leveldb.New(filepath.Join(r.Config.RepoRoot, repo.StorageDirName))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	store := state.New(db)

	n, err := newNode(ctx, r, logger, store, withRemote)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return n, nil
}

func newNode(ctx *cli.Context, r *repo.Repo, logger *logrus.Logger, store *state.Store, withRemote bool) (*node, error) {
	cfg := r.Config
	governorAddr := common.HexToAddress(cfg.Governor.Address)

	tok, err := token.New(common.HexToAddress(cfg.Token.Address), cfg.Token.Name, cfg.Token.Symbol, cfg.Token.Decimals, store)
	if err != nil {
		return nil, err
	}

	var fallback core.TargetResolver
	if withRemote && cfg.Remote.Enable {
		client, err := evm.Dial(ctx.Context, cfg.Remote.DialUrl)
		if err != nil {
			return nil, err
		}
		fallback, err = evm.NewResolver(client, cfg.Remote.PrivateKey, cfg.Remote.ChainID, logger)
		if err != nil {
			return nil, err
		}
	}

	h := host.New(governorAddr, fallback)
	h.Register(tok.Address(), tok)

	dao, err := core.NewGovernor(core.Config{
		Address:       governorAddr,
		Chair:         common.HexToAddress(cfg.Governor.Chair),
		DebatePeriod:  cfg.Governor.DebatePeriod,
		QuorumPercent: cfg.Governor.QuorumPercent,
	}, store, tok.Session(governorAddr), h, core.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("new governor error: %w", err)
	}

	events := make(chan core.Event, 16)
	return &node{
		repo:   r,
		logger: logger,
		store:  store,
		token:  tok,
		dao:    dao,
		events: events,
		sub:    dao.SubscribeEvents(events),
	}, nil
}

// printEvents prints the events published by the command so far.
func (n *node) printEvents() {
	for {
		select {
		case ev := <-n.events:
			fmt.Printf("event %s: proposal=%d account=%s", ev.Type, ev.ProposalID, ev.Account.Hex())
			if ev.Amount != nil {
				fmt.Printf(" amount=%s", ev.Amount)
			}
			switch ev.Type {
			case core.Voted:
				fmt.Printf(" in_favor=%v", ev.InFavor)
			case core.ProposalResolved:
				fmt.Printf(" passed=%v", ev.Passed)
			}
			fmt.Println()
		default:
			return
		}
	}
}

func (n *node) Close() error {
	n.sub.Unsubscribe()
	return n.store.Close()
}
