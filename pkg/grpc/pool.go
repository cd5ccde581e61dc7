package grpc

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

// Pool 依目標地址共用 gRPC 客戶端連線，每個目標只維護一個連線。
type Pool struct {
	mu          sync.Mutex
	conns       map[string]*grpc.ClientConn
	interceptor grpc.UnaryClientInterceptor
	callOpts    []grpc.CallOption
	keepalive   time.Duration
}

// PoolOption Pool 設定選項
type PoolOption func(*Pool)

// WithInterceptor 設定所有連線共用的 UnaryClientInterceptor
func WithInterceptor(interceptor grpc.UnaryClientInterceptor) PoolOption {
	return func(p *Pool) { p.interceptor = interceptor }
}

// WithDefaultCallOptions 每次呼叫都帶上的選項 (例如 content-subtype)
func WithDefaultCallOptions(opts ...grpc.CallOption) PoolOption {
	return func(p *Pool) { p.callOpts = append(p.callOpts, opts...) }
}

// WithKeepalive 設定 ping 間隔，0 代表不送 keepalive
func WithKeepalive(d time.Duration) PoolOption {
	return func(p *Pool) { p.keepalive = d }
}

// NewPool 建立連線池
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{
		conns:     make(map[string]*grpc.ClientConn),
		keepalive: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetConnection 取得或建立通往 target 的連線
//
// 參數:
//
//	target: 伺服器地址 (e.g., "localhost:50051")
//	opts: 額外的 DialOption，附加在預設值之後
//
// 回傳:
//
//	*grpc.ClientConn: 連線 (lazy，第一次呼叫才真正連線)
//	error: 建立失敗
func (p *Pool) GetConnection(target string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if conn, ok := p.conns[target]; ok {
		if conn.GetState() != connectivity.Shutdown {
			return conn, nil
		}
		delete(p.conns, target)
	}

	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if p.keepalive > 0 {
		dialOpts = append(dialOpts, grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                p.keepalive,
			Timeout:             time.Second,
			PermitWithoutStream: true,
		}))
	}
	if p.interceptor != nil {
		dialOpts = append(dialOpts, grpc.WithUnaryInterceptor(p.interceptor))
	}
	if len(p.callOpts) > 0 {
		dialOpts = append(dialOpts, grpc.WithDefaultCallOptions(p.callOpts...))
	}
	dialOpts = append(dialOpts, opts...)

	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("create grpc client for %s: %w", target, err)
	}
	p.conns[target] = conn
	return conn, nil
}

// Close 關閉所有連線，回傳合併後的錯誤
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	for target, conn := range p.conns {
		if cerr := conn.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("close %s: %w", target, cerr))
		}
		delete(p.conns, target)
	}
	return err
}
