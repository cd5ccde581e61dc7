package grpc

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/usecase"
	pb "github.com/JoeShih716/go-mem-bank/proto"
)

// PricePublisher 內建價格來源的寫入端
type PricePublisher interface {
	Publish(handle string, answer int64, decimals uint8) domain.RoundData
}

// AdminChecker 判斷呼叫者是否有管理權限
type AdminChecker interface {
	HasAdminRole(caller domain.Address) bool
}

var _ pb.LedgerServiceServer = (*GrpcServer)(nil)

type GrpcServer struct {
	bank   *usecase.Bank
	prices PricePublisher
	admins AdminChecker
	logger *zap.Logger
}

// ServerOption 設定 GrpcServer 的選項函數
type ServerOption func(*GrpcServer)

// WithPricePublisher 開放 PublishPrice RPC (只允許管理員)
func WithPricePublisher(p PricePublisher, admins AdminChecker) ServerOption {
	return func(s *GrpcServer) {
		s.prices = p
		s.admins = admins
	}
}

// WithServerLogger 設定 logger
func WithServerLogger(logger *zap.Logger) ServerOption {
	return func(s *GrpcServer) { s.logger = logger }
}

func NewGrpcServer(bank *usecase.Bank, opts ...ServerOption) *GrpcServer {
	s := &GrpcServer{bank: bank, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *GrpcServer) Deposit(ctx context.Context, req *pb.DepositRequest) (*pb.Receipt, error) {
	// 1. 解析欄位
	refID, err := parseRefID(req.RefId)
	if err != nil {
		return nil, err
	}
	account, err := parseAddress("account", req.Account)
	if err != nil {
		return nil, err
	}
	asset, err := parseAsset(req.Asset)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		return nil, err
	}
	targetUSD, err := parseOptionalAmount("target_usd", req.TargetUsd)
	if err != nil {
		return nil, err
	}

	// 2. 執行存款
	r, err := s.bank.Deposit(ctx, usecase.DepositRequest{
		RefID:       refID,
		Account:     account,
		Asset:       asset,
		Amount:      amount,
		TargetUSD:   targetUSD,
		SlippageBps: req.SlippageBps,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return toReceipt(r), nil
}

func (s *GrpcServer) Withdraw(ctx context.Context, req *pb.WithdrawRequest) (*pb.Receipt, error) {
	refID, err := parseRefID(req.RefId)
	if err != nil {
		return nil, err
	}
	account, err := parseAddress("account", req.Account)
	if err != nil {
		return nil, err
	}
	asset, err := parseAsset(req.Asset)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		return nil, err
	}

	r, err := s.bank.Withdraw(ctx, usecase.WithdrawRequest{RefID: refID, Account: account, Asset: asset, Amount: amount})
	if err != nil {
		return nil, toStatus(err)
	}
	return toReceipt(r), nil
}

func (s *GrpcServer) Transfer(ctx context.Context, req *pb.TransferRequest) (*pb.Receipt, error) {
	refID, err := parseRefID(req.RefId)
	if err != nil {
		return nil, err
	}
	from, err := parseAddress("from", req.From)
	if err != nil {
		return nil, err
	}
	asset, err := parseAsset(req.Asset)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		return nil, err
	}
	to := usecase.Recipient{Alias: req.ToAlias}
	if req.ToAlias == "" {
		if to.Address, err = parseAddress("to_address", req.ToAddress); err != nil {
			return nil, err
		}
	}

	r, err := s.bank.Transfer(ctx, usecase.TransferRequest{RefID: refID, From: from, Asset: asset, To: to, Amount: amount})
	if err != nil {
		return nil, toStatus(err)
	}
	return toReceipt(r), nil
}

func (s *GrpcServer) GetBalance(ctx context.Context, req *pb.GetBalanceRequest) (*pb.GetBalanceResponse, error) {
	account, err := parseAddress("account", req.Account)
	if err != nil {
		return nil, err
	}
	asset, err := parseAsset(req.Asset)
	if err != nil {
		return nil, err
	}
	balance, err := s.bank.BalanceOf(ctx, asset, account)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.GetBalanceResponse{Balance: balance.Dec()}, nil
}

func (s *GrpcServer) GetWithdrawalAllowance(ctx context.Context, req *pb.GetWithdrawalAllowanceRequest) (*pb.Allowance, error) {
	account, err := parseAddress("account", req.Account)
	if err != nil {
		return nil, err
	}
	a, err := s.bank.WithdrawalAllowance(ctx, account)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.Allowance{
		MaxWithdrawal: decOrEmpty(a.MaxWithdrawal),
		DailyLimit:    decOrEmpty(a.DailyLimit),
		Spent:         a.Spent.Dec(),
		Remaining:     decOrEmpty(a.Remaining),
		WindowStart:   a.WindowStart.Unix(),
		ResetsAt:      a.ResetsAt.Unix(),
	}, nil
}

func (s *GrpcServer) QuoteDeposit(ctx context.Context, req *pb.QuoteDepositRequest) (*pb.QuoteDepositResponse, error) {
	asset, err := parseAsset(req.Asset)
	if err != nil {
		return nil, err
	}
	usd, err := parseAmount("usd", req.Usd)
	if err != nil {
		return nil, err
	}
	amount, err := s.bank.QuoteDeposit(ctx, asset, usd)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.QuoteDepositResponse{Amount: amount.Dec()}, nil
}

func (s *GrpcServer) GetValue(ctx context.Context, req *pb.GetValueRequest) (*pb.GetValueResponse, error) {
	asset, err := parseAsset(req.Asset)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		return nil, err
	}
	usd, err := s.bank.ValueInUSD(ctx, asset, amount)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.GetValueResponse{Usd: usd.Dec()}, nil
}

func (s *GrpcServer) GetCapacity(ctx context.Context, _ *pb.Empty) (*pb.Capacity, error) {
	c, err := s.bank.Capacity(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.Capacity{Cap: c.Cap.Dec(), Total: c.Total.Dec(), Available: decOrEmpty(c.Available)}, nil
}

func (s *GrpcServer) SetContact(ctx context.Context, req *pb.SetContactRequest) (*pb.Contact, error) {
	owner, err := parseAddress("owner", req.Owner)
	if err != nil {
		return nil, err
	}
	contact, err := parseAddress("contact", req.Contact)
	if err != nil {
		return nil, err
	}
	limit, err := parseOptionalAmount("limit", req.Limit)
	if err != nil {
		return nil, err
	}
	c, err := s.bank.SetContact(ctx, usecase.ContactRequest{Owner: owner, Contact: contact, Alias: req.Alias, Limit: limit})
	if err != nil {
		return nil, toStatus(err)
	}
	return toContact(c), nil
}

func (s *GrpcServer) RemoveContact(ctx context.Context, req *pb.RemoveContactRequest) (*pb.Empty, error) {
	owner, err := parseAddress("owner", req.Owner)
	if err != nil {
		return nil, err
	}
	contact, err := parseAddress("contact", req.Contact)
	if err != nil {
		return nil, err
	}
	if err := s.bank.RemoveContact(ctx, owner, contact); err != nil {
		return nil, toStatus(err)
	}
	return &pb.Empty{}, nil
}

func (s *GrpcServer) UpdateContactLimit(ctx context.Context, req *pb.UpdateContactLimitRequest) (*pb.Contact, error) {
	owner, err := parseAddress("owner", req.Owner)
	if err != nil {
		return nil, err
	}
	contact, err := parseAddress("contact", req.Contact)
	if err != nil {
		return nil, err
	}
	limit, err := parseOptionalAmount("limit", req.Limit)
	if err != nil {
		return nil, err
	}
	c, err := s.bank.UpdateContactLimit(ctx, owner, contact, limit)
	if err != nil {
		return nil, toStatus(err)
	}
	return toContact(c), nil
}

func (s *GrpcServer) ResolveAlias(ctx context.Context, req *pb.ResolveAliasRequest) (*pb.ResolveAliasResponse, error) {
	owner, err := parseAddress("owner", req.Owner)
	if err != nil {
		return nil, err
	}
	addr, err := s.bank.ResolveAlias(ctx, owner, req.Alias)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.ResolveAliasResponse{Address: domain.FormatAddress(addr)}, nil
}

func (s *GrpcServer) ListContacts(ctx context.Context, req *pb.ListContactsRequest) (*pb.ListContactsResponse, error) {
	owner, err := parseAddress("owner", req.Owner)
	if err != nil {
		return nil, err
	}
	list, err := s.bank.Contacts(ctx, owner)
	if err != nil {
		return nil, toStatus(err)
	}
	out := &pb.ListContactsResponse{Contacts: make([]*pb.Contact, 0, len(list))}
	for _, c := range list {
		out.Contacts = append(out.Contacts, toContact(c))
	}
	return out, nil
}

func (s *GrpcServer) RegisterToken(ctx context.Context, req *pb.RegisterTokenRequest) (*pb.Empty, error) {
	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		return nil, err
	}
	asset, err := parseAddress("asset", req.Asset)
	if err != nil {
		return nil, err
	}
	if req.Decimals > domain.MaxAssetDecimals {
		return nil, toStatus(domain.ErrInvalidDecimals)
	}
	err = s.bank.RegisterToken(ctx, caller, domain.Asset{ID: asset, Decimals: uint8(req.Decimals), Feed: req.Feed})
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.Empty{}, nil
}

func (s *GrpcServer) UpdateFeed(ctx context.Context, req *pb.UpdateFeedRequest) (*pb.Empty, error) {
	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		return nil, err
	}
	asset, err := parseAsset(req.Asset)
	if err != nil {
		return nil, err
	}
	if err := s.bank.UpdateFeed(ctx, caller, asset, req.Feed); err != nil {
		return nil, toStatus(err)
	}
	return &pb.Empty{}, nil
}

func (s *GrpcServer) SetBankCap(ctx context.Context, req *pb.SetBankCapRequest) (*pb.Empty, error) {
	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		return nil, err
	}
	newCap, err := parseOptionalAmount("cap", req.Cap)
	if err != nil {
		return nil, err
	}
	if err := s.bank.SetBankCap(ctx, caller, newCap); err != nil {
		return nil, toStatus(err)
	}
	return &pb.Empty{}, nil
}

func (s *GrpcServer) SetWithdrawalLimits(ctx context.Context, req *pb.SetWithdrawalLimitsRequest) (*pb.Empty, error) {
	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		return nil, err
	}
	maxWithdrawal, err := parseOptionalAmount("max_withdrawal", req.MaxWithdrawal)
	if err != nil {
		return nil, err
	}
	daily, err := parseOptionalAmount("daily_withdrawal", req.DailyWithdrawal)
	if err != nil {
		return nil, err
	}
	if err := s.bank.SetWithdrawalLimits(ctx, caller, maxWithdrawal, daily); err != nil {
		return nil, toStatus(err)
	}
	return &pb.Empty{}, nil
}

func (s *GrpcServer) Pause(ctx context.Context, req *pb.PauseRequest) (*pb.Empty, error) {
	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		return nil, err
	}
	if err := s.bank.Pause(ctx, caller); err != nil {
		return nil, toStatus(err)
	}
	return &pb.Empty{}, nil
}

func (s *GrpcServer) Unpause(ctx context.Context, req *pb.PauseRequest) (*pb.Empty, error) {
	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		return nil, err
	}
	if err := s.bank.Unpause(ctx, caller); err != nil {
		return nil, toStatus(err)
	}
	return &pb.Empty{}, nil
}

// PublishPrice 推送新價格到內建價格來源；接外部預言機時不開放
func (s *GrpcServer) PublishPrice(_ context.Context, req *pb.PublishPriceRequest) (*pb.PublishPriceResponse, error) {
	if s.prices == nil {
		return nil, status.Error(codes.Unimplemented, "price publishing is disabled")
	}
	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		return nil, err
	}
	if s.admins == nil || !s.admins.HasAdminRole(caller) {
		return nil, toStatus(domain.ErrUnauthorized)
	}
	if req.Feed == "" {
		return nil, toStatus(domain.ErrInvalidFeed)
	}
	if req.Decimals > domain.MaxAssetDecimals {
		return nil, invalidArgument("decimals", domain.ErrInvalidDecimals)
	}
	round := s.prices.Publish(req.Feed, req.Answer, uint8(req.Decimals))
	s.logger.Info("price published",
		zap.String("feed", req.Feed),
		zap.Int64("answer", req.Answer),
		zap.Uint32("decimals", req.Decimals),
		zap.Uint64("round", round.RoundID))
	return &pb.PublishPriceResponse{RoundId: round.RoundID, UpdatedAt: round.UpdatedAt.Unix()}, nil
}

func parseRefID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, invalidArgument("ref_id", err)
	}
	return u, nil
}

func parseAddress(field, s string) (domain.Address, error) {
	a, err := domain.ParseAddress(s)
	if err != nil {
		return domain.ZeroAddress, invalidArgument(field, err)
	}
	return a, nil
}

// parseAsset 空字串代表原生資產
func parseAsset(s string) (domain.AssetID, error) {
	if strings.TrimSpace(s) == "" {
		return domain.NativeAsset, nil
	}
	return parseAddress("asset", s)
}

func parseAmount(field, s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(strings.TrimSpace(s))
	if err != nil {
		return nil, invalidArgument(field, err)
	}
	return v, nil
}

func parseOptionalAmount(field, s string) (*uint256.Int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return parseAmount(field, s)
}

func decOrEmpty(v *uint256.Int) string {
	if v == nil {
		return ""
	}
	return v.Dec()
}

func toReceipt(r domain.Receipt) *pb.Receipt {
	out := &pb.Receipt{
		RefId:      r.TransactionID.String(),
		Sequence:   r.Sequence,
		Type:       r.Type.String(),
		Asset:      domain.FormatAddress(r.Asset),
		Account:    domain.FormatAddress(r.Account),
		Amount:     decOrEmpty(r.Amount),
		UsdValue:   decOrEmpty(r.USDValue),
		NewBalance: decOrEmpty(r.NewBalance),
		CreatedAt:  r.CreatedAt,
	}
	if !domain.IsZeroAddress(r.Counterparty) {
		out.Counterparty = domain.FormatAddress(r.Counterparty)
	}
	return out
}

func toContact(c domain.Contact) *pb.Contact {
	return &pb.Contact{
		Owner:   domain.FormatAddress(c.Owner),
		Address: domain.FormatAddress(c.Address),
		Alias:   c.Alias,
		Limit:   decOrEmpty(c.Limit),
	}
}
