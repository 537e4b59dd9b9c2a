package document

import "github.com/shopspring/decimal"

// PayrollPayload is the body of a payroll document, used instead of taxes and lines.
type PayrollPayload struct {
	PayrollPeriodID int
	Worker          Worker
	Payment         PayrollPayment
	PaymentDates    []string
	Period          Period
	Accrued         Accrued
	Deductions      Deductions
}

type Worker struct {
	TypeWorkerID                        int
	SubTypeWorkerID                     int
	PayrollTypeDocumentIdentificationID int
	MunicipalityID                      int
	TypeContractID                      int
	HighRiskPension                     bool
	IdentificationNumber                string
	Surname                             string
	SecondSurname                       string
	FirstName                           string
	MiddleName                          string
	Address                             string
	IntegralSalary                      bool
	Salary                              decimal.Decimal
	WorkerCode                          string
}

type PayrollPayment struct {
	PaymentMethodID int
	BankName        string
	AccountType     string
	AccountNumber   string
}

type Period struct {
	AdmissionDate       string
	SettlementStartDate string
	SettlementEndDate   string
	WorkedTime          decimal.Decimal
	IssueDate           string
}

type Accrued struct {
	WorkedDays              decimal.Decimal
	Salary                  decimal.Decimal
	TransportationAllowance decimal.Decimal
	AccruedTotal            decimal.Decimal
}

type Deductions struct {
	EPSTypeLawDeductionID     int
	EPSDeduction              decimal.Decimal
	PensionTypeLawDeductionID int
	PensionDeduction          decimal.Decimal
	DeductionsTotal           decimal.Decimal
}
