package memory

import (
	"sync"
	"sync/atomic"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/usecase"
)

var _ usecase.Policy = (*Policy)(nil)

// Policy 暫停開關與管理員名單
type Policy struct {
	paused atomic.Bool
	mu     sync.RWMutex
	admins map[domain.Address]struct{}
}

// NewPolicy 建立 Policy，admins 為擁有管理權限的地址
func NewPolicy(admins ...domain.Address) *Policy {
	p := &Policy{admins: make(map[domain.Address]struct{}, len(admins))}
	for _, a := range admins {
		p.admins[a] = struct{}{}
	}
	return p
}

func (p *Policy) IsPaused() bool { return p.paused.Load() }

func (p *Policy) SetPaused(paused bool) { p.paused.Store(paused) }

// HasAdminRole 空地址永遠沒有權限
func (p *Policy) HasAdminRole(caller domain.Address) bool {
	if domain.IsZeroAddress(caller) {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.admins[caller]
	return ok
}

// Grant 授予管理權限
func (p *Policy) Grant(addr domain.Address) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.admins[addr] = struct{}{}
}

// Revoke 移除管理權限
func (p *Policy) Revoke(addr domain.Address) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.admins, addr)
}
