package apidian

import "github.com/Darklegion92/backend-DIAN-sub001/internal/core/document"

// workerPayload keeps the gateway's "integral_salarary" spelling.
type workerPayload struct {
	TypeWorkerID                        int    `json:"type_worker_id"`
	SubTypeWorkerID                     int    `json:"sub_type_worker_id"`
	PayrollTypeDocumentIdentificationID int    `json:"payroll_type_document_identification_id"`
	MunicipalityID                      int    `json:"municipality_id"`
	TypeContractID                      int    `json:"type_contract_id"`
	HighRiskPension                     bool   `json:"high_risk_pension"`
	IdentificationNumber                string `json:"identification_number"`
	Surname                             string `json:"surname"`
	SecondSurname                       string `json:"second_surname,omitempty"`
	FirstName                           string `json:"first_name"`
	MiddleName                          string `json:"middle_name,omitempty"`
	Address                             string `json:"address"`
	IntegralSalary                      bool   `json:"integral_salarary"`
	Salary                              string `json:"salary"`
	WorkerCode                          string `json:"worker_code,omitempty"`
}

type payrollPaymentPayload struct {
	PaymentMethodID int    `json:"payment_method_id"`
	BankName        string `json:"bank_name,omitempty"`
	AccountType     string `json:"account_type,omitempty"`
	AccountNumber   string `json:"account_number,omitempty"`
}

type paymentDatePayload struct {
	PaymentDate string `json:"payment_date"`
}

type periodPayload struct {
	AdmissionDate       string `json:"admision_date"`
	SettlementStartDate string `json:"settlement_start_date"`
	SettlementEndDate   string `json:"settlement_end_date"`
	WorkedTime          string `json:"worked_time"`
	IssueDate           string `json:"issue_date"`
}

type accruedPayload struct {
	WorkedDays              string `json:"worked_days"`
	Salary                  string `json:"salary"`
	TransportationAllowance string `json:"transportation_allowance,omitempty"`
	AccruedTotal            string `json:"accrued_total"`
}

type deductionsPayload struct {
	EPSTypeLawDeductionsID     int    `json:"eps_type_law_deductions_id"`
	EPSDeduction               string `json:"eps_deduction"`
	PensionTypeLawDeductionsID int    `json:"pension_type_law_deductions_id"`
	PensionDeduction           string `json:"pension_deduction"`
	DeductionsTotal            string `json:"deductions_total"`
}

func payrollPayload(doc document.Document) Payload {
	pr := doc.Payroll
	w := pr.Worker

	dates := make([]paymentDatePayload, 0, len(pr.PaymentDates))
	for _, d := range pr.PaymentDates {
		dates = append(dates, paymentDatePayload{PaymentDate: d})
	}

	accrued := accruedPayload{
		WorkedDays:   amount(pr.Accrued.WorkedDays),
		Salary:       amount(pr.Accrued.Salary),
		AccruedTotal: amount(pr.Accrued.AccruedTotal),
	}
	if !pr.Accrued.TransportationAllowance.IsZero() {
		accrued.TransportationAllowance = amount(pr.Accrued.TransportationAllowance)
	}

	return Payload{
		"type_document_id":  int(doc.Type),
		"prefix":            doc.Number.Prefix,
		"consecutive":       doc.Number.Number,
		"date":              doc.Date,
		"time":              doc.Time,
		"sendmail":          doc.SendMail,
		"payroll_period_id": pr.PayrollPeriodID,
		"worker": workerPayload{
			TypeWorkerID:                        w.TypeWorkerID,
			SubTypeWorkerID:                     w.SubTypeWorkerID,
			PayrollTypeDocumentIdentificationID: w.PayrollTypeDocumentIdentificationID,
			MunicipalityID:                      w.MunicipalityID,
			TypeContractID:                      w.TypeContractID,
			HighRiskPension:                     w.HighRiskPension,
			IdentificationNumber:                w.IdentificationNumber,
			Surname:                             w.Surname,
			SecondSurname:                       w.SecondSurname,
			FirstName:                           w.FirstName,
			MiddleName:                          w.MiddleName,
			Address:                             w.Address,
			IntegralSalary:                      w.IntegralSalary,
			Salary:                              amount(w.Salary),
			WorkerCode:                          w.WorkerCode,
		},
		"payment": payrollPaymentPayload{
			PaymentMethodID: pr.Payment.PaymentMethodID,
			BankName:        pr.Payment.BankName,
			AccountType:     pr.Payment.AccountType,
			AccountNumber:   pr.Payment.AccountNumber,
		},
		"payment_dates": dates,
		"period": periodPayload{
			AdmissionDate:       pr.Period.AdmissionDate,
			SettlementStartDate: pr.Period.SettlementStartDate,
			SettlementEndDate:   pr.Period.SettlementEndDate,
			WorkedTime:          amount(pr.Period.WorkedTime),
			IssueDate:           pr.Period.IssueDate,
		},
		"accrued": accrued,
		"deductions": deductionsPayload{
			EPSTypeLawDeductionsID:     pr.Deductions.EPSTypeLawDeductionID,
			EPSDeduction:               amount(pr.Deductions.EPSDeduction),
			PensionTypeLawDeductionsID: pr.Deductions.PensionTypeLawDeductionID,
			PensionDeduction:           amount(pr.Deductions.PensionDeduction),
			DeductionsTotal:            amount(pr.Deductions.DeductionsTotal),
		},
	}
}
