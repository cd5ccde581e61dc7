package grpc

import (
	"context"
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/oracle"
)

// ErrorDomain errdetails.ErrorInfo 的 Domain
const ErrorDomain = "ledger.v1"

type errorKind struct {
	target error
	code   codes.Code
	reason string
}

// errorKinds 依序比對，第一個符合的決定狀態碼
var errorKinds = []errorKind{
	{domain.ErrZeroAmount, codes.InvalidArgument, "ZERO_AMOUNT"},
	{domain.ErrAmountOverflow, codes.InvalidArgument, "AMOUNT_OVERFLOW"},
	{domain.ErrInvalidAddress, codes.InvalidArgument, "INVALID_ADDRESS"},
	{domain.ErrInvalidDecimals, codes.InvalidArgument, "INVALID_DECIMALS"},
	{domain.ErrInvalidFeed, codes.InvalidArgument, "INVALID_FEED"},
	{domain.ErrInvalidContact, codes.InvalidArgument, "INVALID_CONTACT"},
	{domain.ErrInvalidAlias, codes.InvalidArgument, "INVALID_ALIAS"},
	{domain.ErrSameAccount, codes.InvalidArgument, "SAME_ACCOUNT"},
	{domain.ErrAssetNotRegistered, codes.NotFound, "ASSET_NOT_REGISTERED"},
	{domain.ErrContactNotFound, codes.NotFound, "CONTACT_NOT_FOUND"},
	{oracle.ErrFeedNotFound, codes.NotFound, "FEED_NOT_FOUND"},
	{domain.ErrAssetAlreadyRegistered, codes.AlreadyExists, "ASSET_ALREADY_REGISTERED"},
	{domain.ErrAliasTaken, codes.AlreadyExists, "ALIAS_TAKEN"},
	{domain.ErrRefIDConflict, codes.AlreadyExists, "REF_ID_CONFLICT"},
	{domain.ErrUnauthorized, codes.PermissionDenied, "UNAUTHORIZED"},
	{domain.ErrBankCapExceeded, codes.ResourceExhausted, "BANK_CAP_EXCEEDED"},
	{domain.ErrWithdrawLimitExceeded, codes.ResourceExhausted, "WITHDRAW_LIMIT_EXCEEDED"},
	{domain.ErrLimitExceeded, codes.ResourceExhausted, "CONTACT_LIMIT_EXCEEDED"},
	{domain.ErrInsufficientBalance, codes.FailedPrecondition, "INSUFFICIENT_BALANCE"},
	{domain.ErrSlippageExceeded, codes.FailedPrecondition, "SLIPPAGE_EXCEEDED"},
	{domain.ErrOperationsPaused, codes.FailedPrecondition, "OPERATIONS_PAUSED"},
	{domain.ErrStalePrice, codes.Unavailable, "STALE_PRICE"},
	{domain.ErrInvalidPrice, codes.Unavailable, "INVALID_PRICE"},
	{domain.ErrTransferFailed, codes.Aborted, "TRANSFER_FAILED"},
	{domain.ErrReentrantCall, codes.Aborted, "REENTRANT_CALL"},
	{domain.ErrJournalWriteFailed, codes.Internal, "JOURNAL_WRITE_FAILED"},
}

// toStatus 把帳本錯誤轉成 gRPC status，附帶 errdetails.ErrorInfo
//
// 參數:
//
//	err: 帳本回傳的錯誤
//
// 回傳:
//
//	error: *status.Status 形式的錯誤；err 為 nil 時回傳 nil
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	code, reason := codes.Internal, "INTERNAL"
	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			code, reason = k.code, k.reason
			break
		}
	}

	info := &errdetails.ErrorInfo{Reason: reason, Domain: ErrorDomain}
	var detailed domain.DetailedError
	if errors.As(err, &detailed) {
		info.Reason = detailed.Reason()
		info.Metadata = detailed.Fields()
	}

	st, detailErr := status.New(code, err.Error()).WithDetails(info)
	if detailErr != nil {
		return status.Error(code, err.Error())
	}
	return st.Err()
}

// invalidArgument 請求欄位解析失敗
func invalidArgument(field string, err error) error {
	st, detailErr := status.New(codes.InvalidArgument, field+": "+err.Error()).WithDetails(&errdetails.BadRequest{
		FieldViolations: []*errdetails.BadRequest_FieldViolation{{Field: field, Description: err.Error()}},
	})
	if detailErr != nil {
		return status.Error(codes.InvalidArgument, field+": "+err.Error())
	}
	return st.Err()
}
