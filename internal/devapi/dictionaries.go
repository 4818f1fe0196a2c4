package devapi

import "estatemetrics/internal/domain/models"

func defaultEstateTypes() []models.EstateType {
	return []models.EstateType{
		{ID: 1, Name: "Apartment", Icon: "apartment"},
		{ID: 2, Name: "House", Icon: "house"},
		{ID: 3, Name: "Commercial", Icon: "store"},
		{ID: 4, Name: "Land", Icon: "landscape"},
		{ID: 5, Name: "Parking", Icon: "local_parking"},
	}
}

func defaultTransactionTypes() []models.TransactionType {
	return []models.TransactionType{
		{ID: 1, Name: "Purchase", Direction: models.DirectionExpense, Regularity: models.RegularityOneTime},
		{ID: 2, Name: "Repair", Direction: models.DirectionExpense, Regularity: models.RegularityOneTime},
		{ID: 3, Name: "Sale", Direction: models.DirectionIncome, Regularity: models.RegularityOneTime},
		{ID: 4, Name: "Rent", Direction: models.DirectionIncome, Regularity: models.RegularityRegular},
		{ID: 5, Name: "Mortgage", Direction: models.DirectionExpense, Regularity: models.RegularityRegular},
		{ID: 6, Name: "Utilities", Direction: models.DirectionExpense, Regularity: models.RegularityRegular},
	}
}

func defaultFrequencies() []models.Frequency {
	return []models.Frequency{
		{ID: 1, Name: "Monthly"},
		{ID: 2, Name: "Quarterly"},
		{ID: 3, Name: "Yearly"},
	}
}

func defaultRepaymentPlans() []models.Frequency {
	return []models.Frequency{
		{ID: 1, Name: "Annuity"},
		{ID: 2, Name: "Differentiated"},
	}
}
