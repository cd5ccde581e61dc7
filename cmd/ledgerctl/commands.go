package main

import (
	"context"

	"github.com/urfave/cli"

	pb "github.com/JoeShih716/go-mem-bank/proto"
)

var (
	refFlag     = cli.StringFlag{Name: "ref", Usage: "idempotency key (uuid)"}
	accountFlag = cli.StringFlag{Name: "account", Usage: "account address"}
	assetFlag   = cli.StringFlag{Name: "asset", Usage: "token address, empty for the native asset"}
	amountFlag  = cli.StringFlag{Name: "amount", Usage: "raw amount in the asset's smallest unit"}
	callerFlag  = cli.StringFlag{Name: "caller", Usage: "admin address"}
	ownerFlag   = cli.StringFlag{Name: "owner", Usage: "contact list owner"}
	contactFlag = cli.StringFlag{Name: "contact", Usage: "contact address"}
	limitFlag   = cli.StringFlag{Name: "limit", Usage: "per-transfer limit in raw native units, empty for none"}
)

func commands() []cli.Command {
	return []cli.Command{
		{
			Name:  "deposit",
			Usage: "deposit an asset",
			Flags: []cli.Flag{refFlag, accountFlag, assetFlag, amountFlag,
				cli.StringFlag{Name: "target-usd", Usage: "USD value the deposit should be worth"},
				cli.UintFlag{Name: "slippage-bps", Usage: "tolerance against the target USD quote"},
			},
			Action: func(c *cli.Context) error {
				if err := required(c, "account", "amount"); err != nil {
					return err
				}
				target, err := usdFlag(c, "target-usd")
				if err != nil {
					return err
				}
				return withClient(func(ctx context.Context, lc pb.LedgerServiceClient) (any, error) {
					return lc.Deposit(ctx, &pb.DepositRequest{
						RefId:       c.String("ref"),
						Account:     c.String("account"),
						Asset:       c.String("asset"),
						Amount:      c.String("amount"),
						TargetUsd:   target,
						SlippageBps: uint32(c.Uint("slippage-bps")),
					})
				})(c)
			},
		},
		{
			Name:  "withdraw",
			Usage: "withdraw an asset",
			Flags: []cli.Flag{refFlag, accountFlag, assetFlag, amountFlag},
			Action: func(c *cli.Context) error {
				if err := required(c, "account", "amount"); err != nil {
					return err
				}
				return withClient(func(ctx context.Context, lc pb.LedgerServiceClient) (any, error) {
					return lc.Withdraw(ctx, &pb.WithdrawRequest{
						RefId:   c.String("ref"),
						Account: c.String("account"),
						Asset:   c.String("asset"),
						Amount:  c.String("amount"),
					})
				})(c)
			},
		},
		{
			Name:  "transfer",
			Usage: "move balance to another account, by address or alias",
			Flags: []cli.Flag{refFlag, assetFlag, amountFlag,
				cli.StringFlag{Name: "from", Usage: "sender address"},
				cli.StringFlag{Name: "to", Usage: "recipient address"},
				cli.StringFlag{Name: "alias", Usage: "recipient alias in the sender's contacts"},
			},
			Action: func(c *cli.Context) error {
				if err := required(c, "from", "amount"); err != nil {
					return err
				}
				return withClient(func(ctx context.Context, lc pb.LedgerServiceClient) (any, error) {
					return lc.Transfer(ctx, &pb.TransferRequest{
						RefId:     c.String("ref"),
						From:      c.String("from"),
						Asset:     c.String("asset"),
						ToAddress: c.String("to"),
						ToAlias:   c.String("alias"),
						Amount:    c.String("amount"),
					})
				})(c)
			},
		},
		{
			Name:  "balance",
			Flags: []cli.Flag{accountFlag, assetFlag},
			Action: func(c *cli.Context) error {
				if err := required(c, "account"); err != nil {
					return err
				}
				return withClient(func(ctx context.Context, lc pb.LedgerServiceClient) (any, error) {
					return lc.GetBalance(ctx, &pb.GetBalanceRequest{Account: c.String("account"), Asset: c.String("asset")})
				})(c)
			},
		},
		{
			Name:  "allowance",
			Usage: "remaining withdrawal allowance of an account",
			Flags: []cli.Flag{accountFlag},
			Action: func(c *cli.Context) error {
				if err := required(c, "account"); err != nil {
					return err
				}
				return withClient(func(ctx context.Context, lc pb.LedgerServiceClient) (any, error) {
					return lc.GetWithdrawalAllowance(ctx, &pb.GetWithdrawalAllowanceRequest{Account: c.String("account")})
				})(c)
			},
		},
		{
			Name:  "quote",
			Usage: "raw amount needed to deposit a USD value",
			Flags: []cli.Flag{assetFlag, cli.StringFlag{Name: "usd"}},
			Action: func(c *cli.Context) error {
				if err := required(c, "usd"); err != nil {
					return err
				}
				usd, err := usdFlag(c, "usd")
				if err != nil {
					return err
				}
				return withClient(func(ctx context.Context, lc pb.LedgerServiceClient) (any, error) {
					return lc.QuoteDeposit(ctx, &pb.QuoteDepositRequest{Asset: c.String("asset"), Usd: usd})
				})(c)
			},
		},
		{
			Name:  "value",
			Usage: "USD value of a raw amount",
			Flags: []cli.Flag{assetFlag, amountFlag},
			Action: func(c *cli.Context) error {
				if err := required(c, "amount"); err != nil {
					return err
				}
				return withClient(func(ctx context.Context, lc pb.LedgerServiceClient) (any, error) {
					return lc.GetValue(ctx, &pb.GetValueRequest{Asset: c.String("asset"), Amount: c.String("amount")})
				})(c)
			},
		},
		{
			Name:  "capacity",
			Usage: "bank cap usage",
			Action: withClient(func(ctx context.Context, lc pb.LedgerServiceClient) (any, error) {
				return lc.GetCapacity(ctx, &pb.Empty{})
			}),
		},
		{
			Name:        "contact",
			Usage:       "manage contacts",
			Subcommands: contactCommands(),
		},
		{
			Name:        "admin",
			Usage:       "administrative operations",
			Subcommands: adminCommands(),
		},
		benchCommand(),
	}
}

func contactCommands() []cli.Command {
	return []cli.Command{
		{
			Name:  "set",
			Flags: []cli.Flag{ownerFlag, contactFlag, limitFlag, cli.StringFlag{Name: "alias"}},
			Action: func(c *cli.Context) error {
				if err := required(c, "owner", "contact", "alias"); err != nil {
					return err
				}
				return withClient(func(ctx context.Context, lc pb.LedgerServiceClient) (any, error) {
					return lc.SetContact(ctx, &pb.SetContactRequest{
						Owner:   c.String("owner"),
						Contact: c.String("contact"),
						Alias:   c.String("alias"),
						Limit:   c.String("limit"),
					})
				})(c)
			},
		},
		{
			Name:  "remove",
			Flags: []cli.Flag{ownerFlag, contactFlag},
			Action: func(c *cli.Context) error {
				if err := required(c, "owner", "contact"); err != nil {
					return err
				}
				return withClient(func(ctx context.Context, lc pb.LedgerServiceClient) (any, error) {
					return lc.RemoveContact(ctx, &pb.RemoveContactRequest{Owner: c.String("owner"), Contact: c.String("contact")})
				})(c)
			},
		},
		{
			Name:  "limit",
			Flags: []cli.Flag{ownerFlag, contactFlag, limitFlag},
			Action: func(c *cli.Context) error {
				if err := required(c, "owner", "contact"); err != nil {
					return err
				}
				return withClient(func(ctx context.Context, lc pb.LedgerServiceClient) (any, error) {
					return lc.UpdateContactLimit(ctx, &pb.UpdateContactLimitRequest{
						Owner:   c.String("owner"),
						Contact: c.String("contact"),
						Limit:   c.String("limit"),
					})
				})(c)
			},
		},
		{
			Name:  "resolve",
			Flags: []cli.Flag{ownerFlag, cli.StringFlag{Name: "alias"}},
			Action: func(c *cli.Context) error {
				if err := required(c, "owner", "alias"); err != nil {
					return err
				}
				return withClient(func(ctx context.Context, lc pb.LedgerServiceClient) (any, error) {
					return lc.ResolveAlias(ctx, &pb.ResolveAliasRequest{Owner: c.String("owner"), Alias: c.String("alias")})
				})(c)
			},
		},
		{
			Name:  "list",
			Flags: []cli.Flag{ownerFlag},
			Action: func(c *cli.Context) error {
				if err := required(c, "owner"); err != nil {
					return err
				}
				return withClient(func(ctx context.Context, lc pb.LedgerServiceClient) (any, error) {
					return lc.ListContacts(ctx, &pb.ListContactsRequest{Owner: c.String("owner")})
				})(c)
			},
		},
	}
}

func adminCommands() []cli.Command {
	return []cli.Command{
		{
			Name:  "register-token",
			Flags: []cli.Flag{callerFlag, assetFlag, cli.UintFlag{Name: "decimals"}, cli.StringFlag{Name: "feed"}},
			Action: func(c *cli.Context) error {
				if err := required(c, "caller", "asset", "feed"); err != nil {
					return err
				}
				return withClient(func(ctx context.Context, lc pb.LedgerServiceClient) (any, error) {
					return lc.RegisterToken(ctx, &pb.RegisterTokenRequest{
						Caller:   c.String("caller"),
						Asset:    c.String("asset"),
						Decimals: uint32(c.Uint("decimals")),
						Feed:     c.String("feed"),
					})
				})(c)
			},
		},
		{
			Name:  "update-feed",
			Flags: []cli.Flag{callerFlag, assetFlag, cli.StringFlag{Name: "feed"}},
			Action: func(c *cli.Context) error {
				if err := required(c, "caller", "feed"); err != nil {
					return err
				}
				return withClient(func(ctx context.Context, lc pb.LedgerServiceClient) (any, error) {
					return lc.UpdateFeed(ctx, &pb.UpdateFeedRequest{Caller: c.String("caller"), Asset: c.String("asset"), Feed: c.String("feed")})
				})(c)
			},
		},
		{
			Name:  "set-cap",
			Usage: "set the bank cap in USD, 0 for unlimited",
			Flags: []cli.Flag{callerFlag, cli.StringFlag{Name: "usd", Value: "0"}},
			Action: func(c *cli.Context) error {
				if err := required(c, "caller"); err != nil {
					return err
				}
				usd, err := usdFlag(c, "usd")
				if err != nil {
					return err
				}
				return withClient(func(ctx context.Context, lc pb.LedgerServiceClient) (any, error) {
					return lc.SetBankCap(ctx, &pb.SetBankCapRequest{Caller: c.String("caller"), Cap: usd})
				})(c)
			},
		},
		{
			Name:  "set-limits",
			Usage: "set withdrawal limits in USD, 0 disables a limit",
			Flags: []cli.Flag{callerFlag,
				cli.StringFlag{Name: "max", Value: "0", Usage: "per-withdrawal limit"},
				cli.StringFlag{Name: "daily", Value: "0", Usage: "per-account daily limit"},
			},
			Action: func(c *cli.Context) error {
				if err := required(c, "caller"); err != nil {
					return err
				}
				maxUSD, err := usdFlag(c, "max")
				if err != nil {
					return err
				}
				daily, err := usdFlag(c, "daily")
				if err != nil {
					return err
				}
				return withClient(func(ctx context.Context, lc pb.LedgerServiceClient) (any, error) {
					return lc.SetWithdrawalLimits(ctx, &pb.SetWithdrawalLimitsRequest{
						Caller:          c.String("caller"),
						MaxWithdrawal:   maxUSD,
						DailyWithdrawal: daily,
					})
				})(c)
			},
		},
		{
			Name:  "pause",
			Flags: []cli.Flag{callerFlag},
			Action: func(c *cli.Context) error {
				return withClient(func(ctx context.Context, lc pb.LedgerServiceClient) (any, error) {
					return lc.Pause(ctx, &pb.PauseRequest{Caller: c.String("caller")})
				})(c)
			},
		},
		{
			Name:  "unpause",
			Flags: []cli.Flag{callerFlag},
			Action: func(c *cli.Context) error {
				return withClient(func(ctx context.Context, lc pb.LedgerServiceClient) (any, error) {
					return lc.Unpause(ctx, &pb.PauseRequest{Caller: c.String("caller")})
				})(c)
			},
		},
		{
			Name:  "publish-price",
			Usage: "push a round into the built-in price feed",
			Flags: []cli.Flag{callerFlag,
				cli.StringFlag{Name: "feed"},
				cli.Int64Flag{Name: "answer"},
				cli.UintFlag{Name: "decimals", Value: 8},
			},
			Action: func(c *cli.Context) error {
				if err := required(c, "caller", "feed"); err != nil {
					return err
				}
				return withClient(func(ctx context.Context, lc pb.LedgerServiceClient) (any, error) {
					return lc.PublishPrice(ctx, &pb.PublishPriceRequest{
						Caller:   c.String("caller"),
						Feed:     c.String("feed"),
						Answer:   c.Int64("answer"),
						Decimals: uint32(c.Uint("decimals")),
					})
				})(c)
			},
		},
	}
}
