package devapi

import (
	"cmp"
	"math"
	"net/http"
	"slices"
	"strings"
	"time"

	"estatemetrics/internal/domain/models"
	"estatemetrics/internal/lib/validate"

	"github.com/gin-gonic/gin"
)

func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		fail(c, http.StatusBadRequest, "bad request")
		return false
	}
	return true
}

func (s *Server) login(c *gin.Context) {
	var req models.LoginRequest
	if !bind(c, &req) {
		return
	}

	resp, err := s.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		failErr(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) register(c *gin.Context) {
	var req models.RegisterRequest
	if !bind(c, &req) {
		return
	}

	if err := validate.Credentials(req.Email, req.Password); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.auth.Register(c.Request.Context(), req)
	if err != nil {
		failErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.RegisterResponse{ID: id})
}

func (s *Server) refreshToken(c *gin.Context) {
	var req models.RefreshRequest
	if !bind(c, &req) {
		return
	}

	resp, err := s.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		failErr(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) listUsers(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Accounts(c.Request.Context()))
}

func (s *Server) getUser(c *gin.Context) {
	account, err := s.store.AccountByID(c.Request.Context(), c.GetInt64(ctxUserID))
	if err != nil {
		failErr(c, err)
		return
	}

	c.JSON(http.StatusOK, account.User)
}

func (s *Server) updateProfile(c *gin.Context) {
	var req models.UpdateProfileRequest
	if !bind(c, &req) {
		return
	}

	user, err := s.store.UpdateProfile(c.Request.Context(), c.GetInt64(ctxUserID), req)
	if err != nil {
		failErr(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (s *Server) changePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if !bind(c, &req) {
		return
	}

	if err := validate.ChangePassword(req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.auth.ChangePassword(c.Request.Context(), c.GetInt64(ctxUserID), req); err != nil {
		status, msg := errorStatus(err)
		if status == http.StatusUnauthorized {
			// A wrong current password must not look like an expired session.
			status, msg = http.StatusBadRequest, "current password is incorrect"
		}
		fail(c, status, msg)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password changed"})
}

func (s *Server) listEstates(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Estates(c.Request.Context(), c.GetInt64(ctxUserID)))
}

func (s *Server) getEstate(c *gin.Context) {
	id, ok := pathID(c, "estate_id")
	if !ok {
		return
	}

	estate, ok := s.ownedEstate(c.Request.Context(), c, id)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, estate)
}

func (s *Server) createEstate(c *gin.Context) {
	var req models.EstateRequest
	if !bind(c, &req) {
		return
	}

	if err := validate.Estate(req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	var estateType models.EstateType
	for _, t := range s.estateTypes {
		if t.ID == req.EstateTypeID {
			estateType = t
		}
	}
	if estateType.ID == 0 {
		fail(c, http.StatusBadRequest, "unknown estate type")
		return
	}

	now := s.now().UTC().Format(time.RFC3339)
	estate := s.store.SaveEstate(c.Request.Context(), models.Estate{
		EstateTypeID:   estateType.ID,
		EstateTypeName: estateType.Name,
		EstateTypeIcon: estateType.Icon,
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		UserID:         c.GetInt64(ctxUserID),
		Active:         1,
		CreatedAt:      now,
		UpdatedAt:      now,
	})

	c.JSON(http.StatusCreated, estate)
}

func (s *Server) deleteEstate(c *gin.Context) {
	id, ok := pathID(c, "estate_id")
	if !ok {
		return
	}

	if _, ok := s.ownedEstate(c.Request.Context(), c, id); !ok {
		return
	}

	if err := s.store.DeleteEstate(c.Request.Context(), id); err != nil {
		failErr(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) addTransaction(c *gin.Context) {
	var tx models.Transaction
	if !bind(c, &tx) {
		return
	}

	if err := validate.Transaction(tx); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	if _, ok := s.ownedEstate(c.Request.Context(), c, tx.EstateID); !ok {
		return
	}

	c.JSON(http.StatusCreated, s.store.SaveTransaction(c.Request.Context(), tx))
}

func (s *Server) deleteTransaction(c *gin.Context) {
	id, ok := pathID(c, "transaction_id")
	if !ok {
		return
	}

	tx, err := s.store.Transaction(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}

	if _, ok := s.ownedEstate(c.Request.Context(), c, tx.EstateID); !ok {
		return
	}

	if err := s.store.DeleteTransaction(c.Request.Context(), id); err != nil {
		failErr(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// listUserTransactions lists upcoming payments across the caller's
// estates, regular ones projected a year ahead.
func (s *Server) listUserTransactions(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetInt64(ctxUserID)

	estates := s.store.Estates(ctx, userID)
	names := make(map[int64]string, len(estates))
	ids := make([]int64, 0, len(estates))
	for _, e := range estates {
		names[e.ID] = e.Name
		ids = append(ids, e.ID)
	}

	typeNames := make(map[int64]string, len(s.transactionTypes))
	for _, t := range s.transactionTypes {
		typeNames[t.ID] = t.Name
	}

	from := time.Time{}
	to := s.now().UTC().AddDate(0, scheduleHorizon, 0)

	items := []models.CalendarTransaction{}
	for _, tx := range s.store.Transactions(ctx, ids...) {
		for _, o := range occurrences(tx, from, to) {
			items = append(items, models.CalendarTransaction{
				ID:                  tx.ID,
				EstateID:            tx.EstateID,
				EstateName:          names[tx.EstateID],
				TransactionTypeName: typeNames[tx.TransactionTypeID],
				Amount:              tx.Amount,
				Direction:           tx.Direction,
				Date:                o.date.Format(time.DateOnly),
				Description:         tx.Description,
			})
		}
	}
	slices.SortStableFunc(items, func(a, b models.CalendarTransaction) int {
		return cmp.Or(cmp.Compare(a.Date, b.Date), cmp.Compare(a.ID, b.ID))
	})

	c.JSON(http.StatusOK, models.CalendarTransactionPage{
		Data:       items,
		TotalItems: len(items),
		Page:       1,
		Limit:      len(items),
		TotalPages: 1,
	})
}

func (s *Server) filterTransactions(c *gin.Context) {
	id, ok := pathID(c, "estate_id")
	if !ok {
		return
	}

	var filter models.TransactionFilter
	if !bind(c, &filter) {
		return
	}

	if _, ok := s.ownedEstate(c.Request.Context(), c, id); !ok {
		return
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 10
	}

	var matched []models.Transaction
	for _, tx := range s.store.Transactions(c.Request.Context(), id) {
		if filter.Direction != nil && tx.Direction != *filter.Direction {
			continue
		}
		date := cmp.Or(tx.Date, tx.StartDate)
		if filter.DateStart != "" && date < filter.DateStart {
			continue
		}
		if filter.DateEnd != "" && date > filter.DateEnd {
			continue
		}
		matched = append(matched, tx)
	}

	total := len(matched)
	start := min((filter.Page-1)*filter.Limit, total)
	end := min(start+filter.Limit, total)

	data := matched[start:end]
	if data == nil {
		data = []models.Transaction{}
	}

	c.JSON(http.StatusOK, models.TransactionPage{
		Data: data,
		Pagination: models.Pagination{
			Page:       filter.Page,
			PageSize:   filter.Limit,
			TotalItems: total,
			TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		},
	})
}

func (s *Server) estateValues(c *gin.Context) {
	id, ok := pathID(c, "estate_id")
	if !ok {
		return
	}

	var filter models.ValuesFilter
	if !bind(c, &filter) {
		return
	}

	if _, ok := s.ownedEstate(c.Request.Context(), c, id); !ok {
		return
	}

	from, to := valuesRange(filter, s.now().UTC())
	if from.After(to) {
		fail(c, http.StatusBadRequest, "date_start is after date_end")
		return
	}

	c.JSON(http.StatusOK, chart(s.store.Transactions(c.Request.Context(), id), from, to))
}

func (s *Server) listEstateTypes(c *gin.Context) {
	c.JSON(http.StatusOK, s.estateTypes)
}

func (s *Server) listTransactionTypes(c *gin.Context) {
	c.JSON(http.StatusOK, s.transactionTypes)
}

func (s *Server) listFrequencies(c *gin.Context) {
	c.JSON(http.StatusOK, s.frequencies)
}

func (s *Server) listRepaymentPlans(c *gin.Context) {
	c.JSON(http.StatusOK, s.repaymentPlans)
}
