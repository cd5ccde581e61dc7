package proto

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName gRPC 服務全名
const ServiceName = "ledger.v1.LedgerService"

// LedgerServiceServer 服務端介面
type LedgerServiceServer interface {
	Deposit(context.Context, *DepositRequest) (*Receipt, error)
	Withdraw(context.Context, *WithdrawRequest) (*Receipt, error)
	Transfer(context.Context, *TransferRequest) (*Receipt, error)
	GetBalance(context.Context, *GetBalanceRequest) (*GetBalanceResponse, error)
	GetWithdrawalAllowance(context.Context, *GetWithdrawalAllowanceRequest) (*Allowance, error)
	QuoteDeposit(context.Context, *QuoteDepositRequest) (*QuoteDepositResponse, error)
	GetValue(context.Context, *GetValueRequest) (*GetValueResponse, error)
	GetCapacity(context.Context, *Empty) (*Capacity, error)
	SetContact(context.Context, *SetContactRequest) (*Contact, error)
	RemoveContact(context.Context, *RemoveContactRequest) (*Empty, error)
	UpdateContactLimit(context.Context, *UpdateContactLimitRequest) (*Contact, error)
	ResolveAlias(context.Context, *ResolveAliasRequest) (*ResolveAliasResponse, error)
	ListContacts(context.Context, *ListContactsRequest) (*ListContactsResponse, error)
	RegisterToken(context.Context, *RegisterTokenRequest) (*Empty, error)
	UpdateFeed(context.Context, *UpdateFeedRequest) (*Empty, error)
	SetBankCap(context.Context, *SetBankCapRequest) (*Empty, error)
	SetWithdrawalLimits(context.Context, *SetWithdrawalLimitsRequest) (*Empty, error)
	Pause(context.Context, *PauseRequest) (*Empty, error)
	Unpause(context.Context, *PauseRequest) (*Empty, error)
	PublishPrice(context.Context, *PublishPriceRequest) (*PublishPriceResponse, error)
}

// unary 把 LedgerServiceServer 的方法包成 grpc.MethodDesc
func unary[Req, Resp any](name string, call func(LedgerServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(LedgerServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(LedgerServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// LedgerService_ServiceDesc 服務描述 (手寫，等同 protoc-gen-go-grpc 的輸出)
var LedgerService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Deposit", LedgerServiceServer.Deposit),
		unary("Withdraw", LedgerServiceServer.Withdraw),
		unary("Transfer", LedgerServiceServer.Transfer),
		unary("GetBalance", LedgerServiceServer.GetBalance),
		unary("GetWithdrawalAllowance", LedgerServiceServer.GetWithdrawalAllowance),
		unary("QuoteDeposit", LedgerServiceServer.QuoteDeposit),
		unary("GetValue", LedgerServiceServer.GetValue),
		unary("GetCapacity", LedgerServiceServer.GetCapacity),
		unary("SetContact", LedgerServiceServer.SetContact),
		unary("RemoveContact", LedgerServiceServer.RemoveContact),
		unary("UpdateContactLimit", LedgerServiceServer.UpdateContactLimit),
		unary("ResolveAlias", LedgerServiceServer.ResolveAlias),
		unary("ListContacts", LedgerServiceServer.ListContacts),
		unary("RegisterToken", LedgerServiceServer.RegisterToken),
		unary("UpdateFeed", LedgerServiceServer.UpdateFeed),
		unary("SetBankCap", LedgerServiceServer.SetBankCap),
		unary("SetWithdrawalLimits", LedgerServiceServer.SetWithdrawalLimits),
		unary("Pause", LedgerServiceServer.Pause),
		unary("Unpause", LedgerServiceServer.Unpause),
		unary("PublishPrice", LedgerServiceServer.PublishPrice),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ledger.proto",
}

// RegisterLedgerServiceServer 註冊服務
func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&LedgerService_ServiceDesc, srv)
}

// LedgerServiceClient 客戶端介面
type LedgerServiceClient interface {
	Deposit(ctx context.Context, in *DepositRequest, opts ...grpc.CallOption) (*Receipt, error)
	Withdraw(ctx context.Context, in *WithdrawRequest, opts ...grpc.CallOption) (*Receipt, error)
	Transfer(ctx context.Context, in *TransferRequest, opts ...grpc.CallOption) (*Receipt, error)
	GetBalance(ctx context.Context, in *GetBalanceRequest, opts ...grpc.CallOption) (*GetBalanceResponse, error)
	GetWithdrawalAllowance(ctx context.Context, in *GetWithdrawalAllowanceRequest, opts ...grpc.CallOption) (*Allowance, error)
	QuoteDeposit(ctx context.Context, in *QuoteDepositRequest, opts ...grpc.CallOption) (*QuoteDepositResponse, error)
	GetValue(ctx context.Context, in *GetValueRequest, opts ...grpc.CallOption) (*GetValueResponse, error)
	GetCapacity(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Capacity, error)
	SetContact(ctx context.Context, in *SetContactRequest, opts ...grpc.CallOption) (*Contact, error)
	RemoveContact(ctx context.Context, in *RemoveContactRequest, opts ...grpc.CallOption) (*Empty, error)
	UpdateContactLimit(ctx context.Context, in *UpdateContactLimitRequest, opts ...grpc.CallOption) (*Contact, error)
	ResolveAlias(ctx context.Context, in *ResolveAliasRequest, opts ...grpc.CallOption) (*ResolveAliasResponse, error)
	ListContacts(ctx context.Context, in *ListContactsRequest, opts ...grpc.CallOption) (*ListContactsResponse, error)
	RegisterToken(ctx context.Context, in *RegisterTokenRequest, opts ...grpc.CallOption) (*Empty, error)
	UpdateFeed(ctx context.Context, in *UpdateFeedRequest, opts ...grpc.CallOption) (*Empty, error)
	SetBankCap(ctx context.Context, in *SetBankCapRequest, opts ...grpc.CallOption) (*Empty, error)
	SetWithdrawalLimits(ctx context.Context, in *SetWithdrawalLimitsRequest, opts ...grpc.CallOption) (*Empty, error)
	Pause(ctx context.Context, in *PauseRequest, opts ...grpc.CallOption) (*Empty, error)
	Unpause(ctx context.Context, in *PauseRequest, opts ...grpc.CallOption) (*Empty, error)
	PublishPrice(ctx context.Context, in *PublishPriceRequest, opts ...grpc.CallOption) (*PublishPriceResponse, error)
}

type ledgerServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewLedgerServiceClient 建立客戶端，所有呼叫都使用 JSON codec
func NewLedgerServiceClient(cc grpc.ClientConnInterface) LedgerServiceClient {
	return &ledgerServiceClient{cc: cc}
}

func invoke[Req, Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in *Req, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerServiceClient) Deposit(ctx context.Context, in *DepositRequest, opts ...grpc.CallOption) (*Receipt, error) {
	return invoke[DepositRequest, Receipt](ctx, c.cc, "Deposit", in, opts)
}

func (c *ledgerServiceClient) Withdraw(ctx context.Context, in *WithdrawRequest, opts ...grpc.CallOption) (*Receipt, error) {
	return invoke[WithdrawRequest, Receipt](ctx, c.cc, "Withdraw", in, opts)
}

func (c *ledgerServiceClient) Transfer(ctx context.Context, in *TransferRequest, opts ...grpc.CallOption) (*Receipt, error) {
	return invoke[TransferRequest, Receipt](ctx, c.cc, "Transfer", in, opts)
}

func (c *ledgerServiceClient) GetBalance(ctx context.Context, in *GetBalanceRequest, opts ...grpc.CallOption) (*GetBalanceResponse, error) {
	return invoke[GetBalanceRequest, GetBalanceResponse](ctx, c.cc, "GetBalance", in, opts)
}

func (c *ledgerServiceClient) GetWithdrawalAllowance(ctx context.Context, in *GetWithdrawalAllowanceRequest, opts ...grpc.CallOption) (*Allowance, error) {
	return invoke[GetWithdrawalAllowanceRequest, Allowance](ctx, c.cc, "GetWithdrawalAllowance", in, opts)
}

func (c *ledgerServiceClient) QuoteDeposit(ctx context.Context, in *QuoteDepositRequest, opts ...grpc.CallOption) (*QuoteDepositResponse, error) {
	return invoke[QuoteDepositRequest, QuoteDepositResponse](ctx, c.cc, "QuoteDeposit", in, opts)
}

func (c *ledgerServiceClient) GetValue(ctx context.Context, in *GetValueRequest, opts ...grpc.CallOption) (*GetValueResponse, error) {
	return invoke[GetValueRequest, GetValueResponse](ctx, c.cc, "GetValue", in, opts)
}

func (c *ledgerServiceClient) GetCapacity(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Capacity, error) {
	return invoke[Empty, Capacity](ctx, c.cc, "GetCapacity", in, opts)
}

func (c *ledgerServiceClient) SetContact(ctx context.Context, in *SetContactRequest, opts ...grpc.CallOption) (*Contact, error) {
	return invoke[SetContactRequest, Contact](ctx, c.cc, "SetContact", in, opts)
}

func (c *ledgerServiceClient) RemoveContact(ctx context.Context, in *RemoveContactRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[RemoveContactRequest, Empty](ctx, c.cc, "RemoveContact", in, opts)
}

func (c *ledgerServiceClient) UpdateContactLimit(ctx context.Context, in *UpdateContactLimitRequest, opts ...grpc.CallOption) (*Contact, error) {
	return invoke[UpdateContactLimitRequest, Contact](ctx, c.cc, "UpdateContactLimit", in, opts)
}

func (c *ledgerServiceClient) ResolveAlias(ctx context.Context, in *ResolveAliasRequest, opts ...grpc.CallOption) (*ResolveAliasResponse, error) {
	return invoke[ResolveAliasRequest, ResolveAliasResponse](ctx, c.cc, "ResolveAlias", in, opts)
}

func (c *ledgerServiceClient) ListContacts(ctx context.Context, in *ListContactsRequest, opts ...grpc.CallOption) (*ListContactsResponse, error) {
	return invoke[ListContactsRequest, ListContactsResponse](ctx, c.cc, "ListContacts", in, opts)
}

func (c *ledgerServiceClient) RegisterToken(ctx context.Context, in *RegisterTokenRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[RegisterTokenRequest, Empty](ctx, c.cc, "RegisterToken", in, opts)
}

func (c *ledgerServiceClient) UpdateFeed(ctx context.Context, in *UpdateFeedRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[UpdateFeedRequest, Empty](ctx, c.cc, "UpdateFeed", in, opts)
}

func (c *ledgerServiceClient) SetBankCap(ctx context.Context, in *SetBankCapRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[SetBankCapRequest, Empty](ctx, c.cc, "SetBankCap", in, opts)
}

func (c *ledgerServiceClient) SetWithdrawalLimits(ctx context.Context, in *SetWithdrawalLimitsRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[SetWithdrawalLimitsRequest, Empty](ctx, c.cc, "SetWithdrawalLimits", in, opts)
}

func (c *ledgerServiceClient) Pause(ctx context.Context, in *PauseRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[PauseRequest, Empty](ctx, c.cc, "Pause", in, opts)
}

func (c *ledgerServiceClient) Unpause(ctx context.Context, in *PauseRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[PauseRequest, Empty](ctx, c.cc, "Unpause", in, opts)
}

func (c *ledgerServiceClient) PublishPrice(ctx context.Context, in *PublishPriceRequest, opts ...grpc.CallOption) (*PublishPriceResponse, error) {
	return invoke[PublishPriceRequest, PublishPriceResponse](ctx, c.cc, "PublishPrice", in, opts)
}
