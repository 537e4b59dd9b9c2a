package record

import "github.com/shopspring/decimal"

const (
	workerIdentification = iota
	workerDocumentType
	workerSurname
	workerSecondSurname
	workerFirstName
	workerMiddleName
	workerMunicipality
	workerAddress
	workerType
	workerSubType
	workerContract
	workerSalary
	workerIntegralSalary
	workerHighRisk
	workerCode

	workerRequired = workerSalary + 1
)

// Worker is the employee segment of a payroll export.
type Worker struct {
	Identification string
	DocumentType   string
	Surname        string
	SecondSurname  string
	FirstName      string
	MiddleName     string
	Municipality   string
	Address        string
	Type           string
	SubType        string
	ContractType   string
	Salary         decimal.Decimal
	IntegralSalary bool
	HighRisk       bool
	Code           string
}

// ParseWorker tokenizes the worker segment.
func ParseWorker(segment string) (Worker, error) {
	f := newFields(KindWorker, -1, segment, FieldSeparator)
	if err := f.require(workerRequired); err != nil {
		return Worker{}, err
	}
	salary, err := f.amount(workerSalary)
	if err != nil {
		return Worker{}, err
	}
	return Worker{
		Identification: f.at(workerIdentification),
		DocumentType:   f.at(workerDocumentType),
		Surname:        f.at(workerSurname),
		SecondSurname:  f.at(workerSecondSurname),
		FirstName:      f.at(workerFirstName),
		MiddleName:     f.at(workerMiddleName),
		Municipality:   f.at(workerMunicipality),
		Address:        f.at(workerAddress),
		Type:           f.at(workerType),
		SubType:        f.at(workerSubType),
		ContractType:   f.at(workerContract),
		Salary:         salary,
		IntegralSalary: IsAffirmative(f.optional(workerIntegralSalary)),
		HighRisk:       IsAffirmative(f.optional(workerHighRisk)),
		Code:           f.optional(workerCode),
	}, nil
}

const (
	periodAdmission = iota
	periodSettlementStart
	periodSettlementEnd
	periodWorkedTime
	periodCode
	periodPaymentDate

	periodRequired = periodPaymentDate + 1
)

// Period is the settlement period of a payroll export.
type Period struct {
	AdmissionDate   string
	SettlementStart string
	SettlementEnd   string
	WorkedTime      decimal.Decimal
	PayrollPeriod   string
	PaymentDate     string
}

// ParsePeriod tokenizes the payroll period segment.
func ParsePeriod(segment string) (Period, error) {
	f := newFields(KindPeriod, -1, segment, FieldSeparator)
	if err := f.require(periodRequired); err != nil {
		return Period{}, err
	}
	worked, err := f.amount(periodWorkedTime)
	if err != nil {
		return Period{}, err
	}
	return Period{
		AdmissionDate:   f.at(periodAdmission),
		SettlementStart: f.at(periodSettlementStart),
		SettlementEnd:   f.at(periodSettlementEnd),
		WorkedTime:      worked,
		PayrollPeriod:   f.at(periodCode),
		PaymentDate:     f.at(periodPaymentDate),
	}, nil
}

// Accrued lists the earnings of a payroll export.
type Accrued struct {
	WorkedDays              decimal.Decimal
	Salary                  decimal.Decimal
	TransportationAllowance decimal.Decimal
	Total                   decimal.Decimal
}

// ParseAccrued tokenizes the accrued segment.
func ParseAccrued(segment string) (Accrued, error) {
	f := newFields(KindAccrued, -1, segment, FieldSeparator)
	if err := f.require(4); err != nil {
		return Accrued{}, err
	}
	var a Accrued
	for i, target := range []*decimal.Decimal{&a.WorkedDays, &a.Salary, &a.TransportationAllowance, &a.Total} {
		value, err := f.amount(i)
		if err != nil {
			return Accrued{}, err
		}
		*target = value
	}
	return a, nil
}

const (
	deductionEPSType = iota
	deductionEPS
	deductionPensionType
	deductionPension
	deductionTotal

	deductionRequired = deductionTotal + 1
)

// Deductions lists the mandatory deductions of a payroll export.
type Deductions struct {
	EPSType     string
	EPS         decimal.Decimal
	PensionType string
	Pension     decimal.Decimal
	Total       decimal.Decimal
}

// ParseDeductions tokenizes the deductions segment.
func ParseDeductions(segment string) (Deductions, error) {
	f := newFields(KindDeductions, -1, segment, FieldSeparator)
	if err := f.require(deductionRequired); err != nil {
		return Deductions{}, err
	}
	d := Deductions{EPSType: f.at(deductionEPSType), PensionType: f.at(deductionPensionType)}
	var err error
	if d.EPS, err = f.amount(deductionEPS); err != nil {
		return Deductions{}, err
	}
	if d.Pension, err = f.amount(deductionPension); err != nil {
		return Deductions{}, err
	}
	if d.Total, err = f.amount(deductionTotal); err != nil {
		return Deductions{}, err
	}
	return d, nil
}

// PayrollPayment is the payment segment of a payroll export (PaymentFieldSeparator).
type PayrollPayment struct {
	Method        string
	BankName      string
	AccountType   string
	AccountNumber string
}

// ParsePayrollPayment tokenizes the payroll payment segment.
func ParsePayrollPayment(segment string) (PayrollPayment, error) {
	f := newFields(KindPayrollPayment, -1, segment, PaymentFieldSeparator)
	if err := f.require(1); err != nil {
		return PayrollPayment{}, err
	}
	return PayrollPayment{
		Method:        f.at(0),
		BankName:      f.optional(1),
		AccountType:   f.optional(2),
		AccountNumber: f.optional(3),
	}, nil
}
