package assembler

import (
	"context"
	"fmt"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/catalog"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/document"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/record"
)

func (a *Assembler) assemblePayroll(ctx context.Context, segments record.Segments, opts Options) (document.Document, error) {
	in, err := record.ParsePayroll(segments)
	if err != nil {
		return document.Document{}, err
	}

	doc := document.Document{
		Type:             document.Payroll,
		TaxpayerID:       opts.TaxpayerID,
		ResolutionNumber: in.Header.Resolution,
		HeadNote:         in.Header.Note,
	}
	if doc.Number, err = document.SplitNumber(in.Header.Number, opts.ResolutionPrefix); err != nil {
		return document.Document{}, err
	}
	if doc.Date, doc.Time, err = document.SplitTimestamp(in.Header.IssuedAt); err != nil {
		return document.Document{}, err
	}

	lookups := []catalog.Lookup{
		catalog.NewLookup(catalog.PayrollTypeDocumentIdentification, in.Worker.DocumentType),
		catalog.NewLookup(catalog.Municipality, in.Worker.Municipality),
		catalog.NewLookup(catalog.TypeWorker, in.Worker.Type),
		catalog.NewLookup(catalog.SubTypeWorker, in.Worker.SubType),
		catalog.NewLookup(catalog.TypeContract, in.Worker.ContractType),
		catalog.NewLookup(catalog.PayrollPeriod, in.Period.PayrollPeriod),
		catalog.NewLookup(catalog.TypeLawDeduction, in.Deductions.EPSType),
		catalog.NewLookup(catalog.TypeLawDeduction, in.Deductions.PensionType),
		catalog.NewLookup(catalog.PaymentMethod, in.Payment.Method),
	}
	codes, err := a.resolver.ResolveBatch(ctx, lookups)
	if err != nil {
		return document.Document{}, fmt.Errorf("resolve catalog codes: %w", err)
	}

	payload := &document.PayrollPayload{
		PaymentDates: []string{in.Period.PaymentDate},
		Worker: document.Worker{
			HighRiskPension:      in.Worker.HighRisk,
			IdentificationNumber: in.Worker.Identification,
			Surname:              in.Worker.Surname,
			SecondSurname:        in.Worker.SecondSurname,
			FirstName:            in.Worker.FirstName,
			MiddleName:           in.Worker.MiddleName,
			Address:              orDefault(in.Worker.Address, DefaultAddress),
			IntegralSalary:       in.Worker.IntegralSalary,
			Salary:               in.Worker.Salary,
			WorkerCode:           in.Worker.Code,
		},
		Payment: document.PayrollPayment{
			BankName:      in.Payment.BankName,
			AccountType:   in.Payment.AccountType,
			AccountNumber: in.Payment.AccountNumber,
		},
		Period: document.Period{
			AdmissionDate:       in.Period.AdmissionDate,
			SettlementStartDate: in.Period.SettlementStart,
			SettlementEndDate:   in.Period.SettlementEnd,
			WorkedTime:          in.Period.WorkedTime,
			IssueDate:           doc.Date,
		},
		Accrued: document.Accrued{
			WorkedDays:              in.Accrued.WorkedDays,
			Salary:                  in.Accrued.Salary,
			TransportationAllowance: in.Accrued.TransportationAllowance,
			AccruedTotal:            in.Accrued.Total,
		},
		Deductions: document.Deductions{
			EPSDeduction:     in.Deductions.EPS,
			PensionDeduction: in.Deductions.Pension,
			DeductionsTotal:  in.Deductions.Total,
		},
	}

	ids := []struct {
		name   catalog.Name
		code   string
		target *int
	}{
		{catalog.PayrollTypeDocumentIdentification, in.Worker.DocumentType, &payload.Worker.PayrollTypeDocumentIdentificationID},
		{catalog.Municipality, in.Worker.Municipality, &payload.Worker.MunicipalityID},
		{catalog.TypeWorker, in.Worker.Type, &payload.Worker.TypeWorkerID},
		{catalog.SubTypeWorker, in.Worker.SubType, &payload.Worker.SubTypeWorkerID},
		{catalog.TypeContract, in.Worker.ContractType, &payload.Worker.TypeContractID},
		{catalog.PayrollPeriod, in.Period.PayrollPeriod, &payload.PayrollPeriodID},
		{catalog.TypeLawDeduction, in.Deductions.EPSType, &payload.Deductions.EPSTypeLawDeductionID},
		{catalog.TypeLawDeduction, in.Deductions.PensionType, &payload.Deductions.PensionTypeLawDeductionID},
		{catalog.PaymentMethod, in.Payment.Method, &payload.Payment.PaymentMethodID},
	}
	for _, id := range ids {
		value, err := codes.MustID(id.name, id.code)
		if err != nil {
			return document.Document{}, err
		}
		*id.target = value
	}

	doc.Payroll = payload
	return doc, nil
}
