package backend

import (
	"context"
	"fmt"
	"net/http"

	"estatemetrics/internal/domain/models"
)

func (c *Client) Estates(ctx context.Context, token string, userID int64) ([]models.Estate, error) {
	var estates []models.Estate
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/estates", userID), token, nil, &estates)
	return estates, err
}

func (c *Client) Estate(ctx context.Context, token string, userID, estateID int64) (models.Estate, error) {
	var estate models.Estate
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/estates/%d", userID, estateID), token, nil, &estate)
	return estate, err
}

func (c *Client) CreateEstate(ctx context.Context, token string, userID int64, req models.EstateRequest) (models.Estate, error) {
	var estate models.Estate
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/users/%d/estates", userID), token, req, &estate)
	return estate, err
}

func (c *Client) DeleteEstate(ctx context.Context, token string, estateID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/estates/%d", estateID), token, nil, nil)
}

func (c *Client) UserTransactions(ctx context.Context, token string, userID int64) (models.CalendarTransactionPage, error) {
	var page models.CalendarTransactionPage
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/transactions", userID), token, nil, &page)
	return page, err
}

func (c *Client) EstateTransactions(ctx context.Context, token string, userID int64, filter models.TransactionFilter) (models.TransactionPage, error) {
	var page models.TransactionPage
	path := fmt.Sprintf("/users/%d/estates/%d/transactions/filter", userID, filter.EstateID)
	err := c.do(ctx, http.MethodPost, path, token, filter, &page)
	return page, err
}

func (c *Client) AddTransaction(ctx context.Context, token string, tx models.Transaction) (models.Transaction, error) {
	var created models.Transaction
	err := c.do(ctx, http.MethodPost, "/transactions", token, tx, &created)
	return created, err
}

func (c *Client) DeleteTransaction(ctx context.Context, token string, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/transactions/%d", id), token, nil, nil)
}

func (c *Client) EstateValues(ctx context.Context, token string, userID, estateID int64, filter models.ValuesFilter) (models.ChartData, error) {
	var data models.ChartData
	path := fmt.Sprintf("/users/%d/estates/%d/values/filter", userID, estateID)
	err := c.do(ctx, http.MethodPost, path, token, filter, &data)
	return data, err
}

func (c *Client) EstateTypes(ctx context.Context, token string) ([]models.EstateType, error) {
	var types []models.EstateType
	err := c.do(ctx, http.MethodGet, "/estate-types", token, nil, &types)
	return types, err
}

func (c *Client) TransactionTypes(ctx context.Context, token string) ([]models.TransactionType, error) {
	var types []models.TransactionType
	err := c.do(ctx, http.MethodGet, "/transaction-types", token, nil, &types)
	return types, err
}

func (c *Client) TransactionFrequencies(ctx context.Context, token string) ([]models.Frequency, error) {
	var freqs []models.Frequency
	err := c.do(ctx, http.MethodGet, "/transaction-frequencies", token, nil, &freqs)
	return freqs, err
}

func (c *Client) RepaymentPlans(ctx context.Context, token string) ([]models.Frequency, error) {
	var plans []models.Frequency
	err := c.do(ctx, http.MethodGet, "/repayment-plans", token, nil, &plans)
	return plans, err
}
