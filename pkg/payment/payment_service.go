package payment

import (
	"context"
	"strconv"

	"github.com/Hakheem/TibaPoint-sub001/domain"
	"github.com/Hakheem/TibaPoint-sub001/internal/utils"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
)

type (
	// PaymentService wraps the gateway. The engine only ever consumes the
	// confirmed result; nothing here touches the ledger.
	PaymentService interface {
		CreateInvoice(ctx context.Context, referenceID string, amountKsh float64, email string) (string, error)
		CheckStatus(ctx context.Context, referenceID string) (bool, float64, error)
	}

	paymentService struct {
		snapClient snap.Client
		coreClient coreapi.Client
	}
)

func NewPaymentService() PaymentService {
	serverKey := utils.GetConfig("SERVER_KEY")
	env := midtrans.Sandbox
	if utils.GetConfig("IsProd") == "true" {
		env = midtrans.Production
	}

	var snapClient snap.Client
	snapClient.New(serverKey, env)

	var coreClient coreapi.Client
	coreClient.New(serverKey, env)

	return &paymentService{
		snapClient: snapClient,
		coreClient: coreClient,
	}
}

func (s *paymentService) CreateInvoice(ctx context.Context, referenceID string, amountKsh float64, email string) (string, error) {
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  referenceID,
			GrossAmt: int64(amountKsh),
		},
		CustomerDetail: &midtrans.CustomerDetails{
			Email: email,
		},
	}

	resp, err := s.snapClient.CreateTransaction(req)
	if err != nil {
		return "", domain.ErrPaymentFailed
	}
	return resp.RedirectURL, nil
}

// CheckStatus verifies a webhook notification against the gateway instead of
// trusting the delivered payload.
func (s *paymentService) CheckStatus(ctx context.Context, referenceID string) (bool, float64, error) {
	resp, err := s.coreClient.CheckTransaction(referenceID)
	if err != nil {
		return false, 0, domain.ErrPaymentFailed
	}

	confirmed := resp.TransactionStatus == "settlement" ||
		(resp.TransactionStatus == "capture" && resp.FraudStatus == "accept")

	amount, parseErr := strconv.ParseFloat(resp.GrossAmount, 64)
	if parseErr != nil {
		amount = 0
	}
	return confirmed, amount, nil
}
