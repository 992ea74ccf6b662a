package rpc

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// LedgerServiceClient is a client for the ticketsplit.v1.LedgerService service.
type LedgerServiceClient struct {
	createAssignment *connect.Client[CreateAssignmentRequest, CreateAssignmentResponse]
	deleteAssignment *connect.Client[DeleteAssignmentRequest, DeleteAssignmentResponse]
	deleteTicket     *connect.Client[DeleteTicketRequest, DeleteTicketResponse]
	userTotal        *connect.Client[UserTotalRequest, UserTotalResponse]
}

// NewLedgerServiceClient constructs a client for the LedgerService. baseURL
// is the server root, e.g. http://localhost:8080.
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *LedgerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)

	return &LedgerServiceClient{
		createAssignment: connect.NewClient[CreateAssignmentRequest, CreateAssignmentResponse](httpClient, baseURL+LedgerServiceCreateAssignmentProcedure, opts...),
		deleteAssignment: connect.NewClient[DeleteAssignmentRequest, DeleteAssignmentResponse](httpClient, baseURL+LedgerServiceDeleteAssignmentProcedure, opts...),
		deleteTicket:     connect.NewClient[DeleteTicketRequest, DeleteTicketResponse](httpClient, baseURL+LedgerServiceDeleteTicketProcedure, opts...),
		userTotal:        connect.NewClient[UserTotalRequest, UserTotalResponse](httpClient, baseURL+LedgerServiceUserTotalProcedure, opts...),
	}
}

func (c *LedgerServiceClient) CreateAssignment(ctx context.Context, req *connect.Request[CreateAssignmentRequest]) (*connect.Response[CreateAssignmentResponse], error) {
	return c.createAssignment.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) DeleteAssignment(ctx context.Context, req *connect.Request[DeleteAssignmentRequest]) (*connect.Response[DeleteAssignmentResponse], error) {
	return c.deleteAssignment.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) DeleteTicket(ctx context.Context, req *connect.Request[DeleteTicketRequest]) (*connect.Response[DeleteTicketResponse], error) {
	return c.deleteTicket.CallUnary(ctx, req)
}

func (c *LedgerServiceClient) UserTotal(ctx context.Context, req *connect.Request[UserTotalRequest]) (*connect.Response[UserTotalResponse], error) {
	return c.userTotal.CallUnary(ctx, req)
}
