package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	grpcpool "github.com/JoeShih716/go-mem-bank/pkg/grpc"
	pb "github.com/JoeShih716/go-mem-bank/proto"
)

// benchCommand 併發送出存款，量測 TPS
func benchCommand() cli.Command {
	return cli.Command{
		Name:  "bench",
		Usage: "fire concurrent deposits and report throughput",
		Flags: []cli.Flag{accountFlag, assetFlag,
			cli.StringFlag{Name: "amount", Value: "10000"},
			cli.IntFlag{Name: "count", Value: 100000},
			cli.IntFlag{Name: "concurrency", Value: 100},
			cli.DurationFlag{Name: "deadline", Value: 120 * time.Second},
		},
		Action: func(c *cli.Context) error {
			if err := required(c, "account"); err != nil {
				return err
			}
			pool := grpcpool.NewPool(grpcpool.WithDefaultCallOptions(grpc.CallContentSubtype(pb.CodecName)))
			defer pool.Close()
			conn, err := pool.GetConnection(c.GlobalString("addr"))
			if err != nil {
				return err
			}
			client := pb.NewLedgerServiceClient(conn)

			ctx, cancel := context.WithTimeout(context.Background(), c.Duration("deadline"))
			defer cancel()

			total := c.Int("count")
			var failed atomic.Int64
			var firstErr atomic.Value

			g := new(errgroup.Group)
			g.SetLimit(c.Int("concurrency"))
			start := time.Now()
			for i := 0; i < total; i++ {
				g.Go(func() error {
					_, err := client.Deposit(ctx, &pb.DepositRequest{
						RefId:   uuid.NewString(),
						Account: c.String("account"),
						Asset:   c.String("asset"),
						Amount:  c.String("amount"),
					})
					if err != nil {
						failed.Add(1)
						firstErr.CompareAndSwap(nil, err.Error())
					}
					return nil
				})
			}
			_ = g.Wait()
			elapsed := time.Since(start)

			fmt.Printf("Completed %d requests in %v (%d failed)\n", total, elapsed, failed.Load())
			fmt.Printf("TPS: %.2f\n", float64(total)/elapsed.Seconds())
			if msg, ok := firstErr.Load().(string); ok {
				fmt.Printf("first error: %s\n", msg)
			}
			return nil
		},
	}
}
