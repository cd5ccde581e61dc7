// ledgerctl 透過 gRPC 操作帳本服務的命令列工具。
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli"
	"google.golang.org/grpc"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/convert"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	grpcpool "github.com/JoeShih716/go-mem-bank/pkg/grpc"
	pb "github.com/JoeShih716/go-mem-bank/proto"
)

func main() {
	app := cli.NewApp()
	app.Name = "ledgerctl"
	app.Usage = "talk to the ledger gRPC service"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "addr", Value: "localhost:50051", EnvVar: "LEDGER_ADDR", Usage: "ledger service address"},
		cli.DurationFlag{Name: "timeout", Value: 10 * time.Second, Usage: "per-call timeout"},
	}
	app.Commands = commands()

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// withClient 建立連線並在 timeout 內執行 fn，結果以 JSON 印出
func withClient(fn func(ctx context.Context, c pb.LedgerServiceClient) (any, error)) cli.ActionFunc {
	return func(c *cli.Context) error {
		pool := grpcpool.NewPool(grpcpool.WithDefaultCallOptions(grpc.CallContentSubtype(pb.CodecName)))
		defer pool.Close()

		conn, err := pool.GetConnection(c.GlobalString("addr"))
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), c.GlobalDuration("timeout"))
		defer cancel()

		resp, err := fn(ctx, pb.NewLedgerServiceClient(conn))
		if err != nil {
			return err
		}
		return printJSON(resp)
	}
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// usdFlag 把人類可讀的 USD (例如 "12.5") 轉為 6 位小數整數字串，空字串保持空
func usdFlag(c *cli.Context, name string) (string, error) {
	s := c.String(name)
	if s == "" {
		return "", nil
	}
	v, err := convert.ParseUnits(s, domain.USDDecimals)
	if err != nil {
		return "", fmt.Errorf("--%s: %w", name, err)
	}
	return v.Dec(), nil
}

func required(c *cli.Context, names ...string) error {
	for _, n := range names {
		if c.String(n) == "" {
			return cli.NewExitError(fmt.Sprintf("--%s is required", n), 2)
		}
	}
	return nil
}
