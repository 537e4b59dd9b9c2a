package submission

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/application/assembler"
	appcatalog "github.com/Darklegion92/backend-DIAN-sub001/internal/application/catalog"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/application/evaluator"
	apptax "github.com/Darklegion92/backend-DIAN-sub001/internal/application/tax"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/catalog"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/document"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/record"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/resolution"
	coresubmission "github.com/Darklegion92/backend-DIAN-sub001/internal/core/submission"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/testutil"
)

const (
	taxpayer     = "900123456"
	resolutionNo = "18760000001"
	acceptedBody = `{"ResponseDian":{"Envelope":{"Body":{"SendBillSyncResponse":{"SendBillSyncResult":{"IsValid":"true"}}}}},"cufe":"CUFE-1"}`
	rejectedBody = `{"ResponseDian":{"Envelope":{"Body":{"SendBillSyncResponse":{"SendBillSyncResult":{"IsValid":"false","ErrorMessage":{"string":"Regla FAD06"}}}}}}}`
)

var testCatalog = map[catalog.Name]map[string]int{
	catalog.TypeDocument:               {"01": 1, "91": 4, "NI": 9, "05": 11, "95": 13, "XX": 99},
	catalog.TypeOperation:              {"10": 10},
	catalog.TypeDocumentIdentification: {"31": 6},
	catalog.TypeOrganization:           {"1": 1},
	catalog.TypeRegime:                 {"48": 1},
	catalog.TypeLiability:              {"O-13": 7},
	catalog.Municipality:               {"05001": 149},
	catalog.PaymentForm:                {"1": 1, "2": 2},
	catalog.PaymentMethod:              {"10": 10, "47": 47},
	catalog.UnitMeasure:                {"94": 70},
	catalog.TypeItemIdentification:     {"999": 4},
	catalog.Tax:                        {"01": 1},
}

type fakeCredentials struct {
	mu          sync.Mutex
	token       string
	err         error
	invalidated []string
}

func (f *fakeCredentials) Token(ctx context.Context, taxpayerID string) (string, error) {
	return f.token, f.err
}

func (f *fakeCredentials) Invalidate(taxpayerID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, taxpayerID)
}

type fakeLocker struct {
	mu       sync.Mutex
	err      error
	keys     []string
	released int
	// onLock runs after the lock is granted.
	onLock func()
}

func (f *fakeLocker) Lock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.keys = append(f.keys, key)
	if f.onLock != nil {
		f.onLock()
	}
	return func(context.Context) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.released++
		return nil
	}, nil
}

type fixture struct {
	service     *Service
	gateway     *testutil.MockGateway
	documents   *testutil.MemoryDocumentStore
	credentials *fakeCredentials
	locker      *fakeLocker

	mu       sync.Mutex
	archived []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := testutil.NewNullLogger()
	f := &fixture{
		gateway:     &testutil.MockGateway{},
		documents:   testutil.NewMemoryDocumentStore(),
		credentials: &fakeCredentials{token: "tok"},
		locker:      &fakeLocker{},
	}

	store := &testutil.MockCatalogStore{FindIDsFunc: testutil.StaticCatalog(testCatalog)}
	resolver := appcatalog.NewResolver(store, logger)
	artifacts := &testutil.MockArtifactFetcher{
		FetchArtifactFunc: func(ctx context.Context, ref document.Reference, token string) ([]byte, error) {
			return []byte("%PDF"), nil
		},
	}
	archive := &testutil.MockArtifactArchive{
		StoreFunc: func(ctx context.Context, ref document.Reference, pdf []byte) (string, error) {
			uri := "gs://artifacts/" + ref.TaxpayerID + "/" + ref.ArtifactName()
			f.mu.Lock()
			f.archived = append(f.archived, uri)
			f.mu.Unlock()
			return uri, nil
		},
	}
	resolutions := &testutil.MockResolutionRepository{
		FindByNumberFunc: func(ctx context.Context, taxpayerID, number string) (*resolution.Resolution, error) {
			if number != resolutionNo {
				return nil, &resolution.NotFoundError{TaxpayerID: taxpayerID, ResolutionNumber: number}
			}
			return &resolution.Resolution{TaxpayerID: taxpayerID, ResolutionNumber: number, Prefix: "FACT"}, nil
		},
	}

	f.service = NewService(Deps{
		Catalog:     resolver,
		Assembler:   assembler.New(resolver, apptax.NewEngine(nil, logger), logger),
		Resolutions: resolutions,
		Credentials: f.credentials,
		Documents:   f.documents,
		Gateway:     f.gateway,
		Artifacts:   artifacts,
		Evaluator:   evaluator.New(f.documents, artifacts, logger),
		Archive:     archive,
		Locker:      f.locker,
	}, Options{BatchWorkers: 3}, logger)
	return f
}

func (f *fixture) respond(status int, body string) {
	f.gateway.SubmitFunc = func(ctx context.Context, doc document.Document, token string) (coresubmission.RawResponse, error) {
		return coresubmission.RawResponse{StatusCode: status, Body: []byte(body)}, nil
	}
}

func invoiceRequest(number string) Request {
	return Request{
		TaxpayerID:   taxpayer,
		DocumentType: "01",
		Segments: record.Segments{
			Header:   "X|Y|10|FACT" + number + "|2024-01-15 10:30:00|" + resolutionNo,
			Customer: "800200300-7||ACME SAS|31|1|48|O-13|5001|CALLE 10|3001234567|compras@acme.co",
			Totals:   "1000|1190|1190|1190",
			Taxes:    "01|19|1000|190",
			Lines:    "P1|Producto|94|0|1000|1000|999|01|19|190|1000|",
			Payment:  "1;10;2024-01-15;0",
		},
	}
}

func TestPreview(t *testing.T) {
	f := newFixture(t)

	doc, err := f.service.Preview(context.Background(), invoiceRequest("0001"))

	require.NoError(t, err)
	assert.Equal(t, document.Invoice, doc.Type)
	assert.Equal(t, "FACT", doc.Number.Prefix)
	assert.Equal(t, "0001", doc.Number.Number)
	assert.Equal(t, taxpayer, doc.TaxpayerID)
	assert.Empty(t, f.gateway.Submitted())
}

func TestPreview_UnsupportedType(t *testing.T) {
	f := newFixture(t)
	req := invoiceRequest("0001")
	req.DocumentType = "XX"

	_, err := f.service.Preview(context.Background(), req)

	var unsupported *UnsupportedTypeError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, 99, unsupported.ID)
}

func TestPreview_UnknownType(t *testing.T) {
	f := newFixture(t)
	req := invoiceRequest("0001")
	req.DocumentType = "ZZ"

	_, err := f.service.Preview(context.Background(), req)

	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestSubmit_Accepted(t *testing.T) {
	f := newFixture(t)
	f.respond(200, acceptedBody)

	result, err := f.service.Submit(context.Background(), invoiceRequest("0001"))

	require.NoError(t, err)
	assert.Equal(t, coresubmission.StatusAccepted, result.Status)
	assert.Equal(t, "CUFE-1", result.FiscalCode)
	assert.Equal(t, "900123456:FACT0001", result.Document)
	assert.Equal(t, "invoice", result.Type)
	assert.Equal(t, "gs://artifacts/900123456/FES-FACT0001.pdf", result.ArchiveURI)
	assert.Equal(t, 1, f.documents.Records())
	assert.Equal(t, []string{"lock:document:900123456:FACT0001"}, f.locker.keys)
	assert.Equal(t, 1, f.locker.released)

	code, found, err := f.documents.FindFiscalCode(context.Background(), document.Reference{
		TaxpayerID: taxpayer, Prefix: "FACT", Number: "0001",
	})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "CUFE-1", code)
}

func TestSubmit_AlreadyKnown(t *testing.T) {
	f := newFixture(t)
	f.documents = testutil.NewMemoryDocumentStore(document.Record{
		Reference:  document.Reference{TaxpayerID: taxpayer, Type: document.Invoice, Prefix: "FACT", Number: "0001"},
		FiscalCode: "OLD",
	})
	f.service.Documents = f.documents

	result, err := f.service.Submit(context.Background(), invoiceRequest("0001"))

	require.NoError(t, err)
	assert.Equal(t, coresubmission.StatusAlreadyKnown, result.Status)
	assert.Equal(t, "OLD", result.FiscalCode)
	assert.Empty(t, f.gateway.Submitted())
	assert.Empty(t, f.locker.keys)
}

func TestSubmit_AcceptedElsewhereWhileLocking(t *testing.T) {
	f := newFixture(t)
	f.respond(200, acceptedBody)
	f.locker.onLock = func() {
		err := f.documents.Save(context.Background(), document.Record{
			Reference:  document.Reference{TaxpayerID: taxpayer, Type: document.Invoice, Prefix: "FACT", Number: "0001"},
			FiscalCode: "CUFE-OTHER",
		})
		require.NoError(t, err)
	}

	result, err := f.service.Submit(context.Background(), invoiceRequest("0001"))

	require.NoError(t, err)
	assert.Equal(t, coresubmission.StatusAlreadyKnown, result.Status)
	assert.Equal(t, "CUFE-OTHER", result.FiscalCode)
	assert.Empty(t, f.gateway.Submitted())
	assert.Equal(t, 1, f.locker.released)
}

func TestSubmit_Rejected(t *testing.T) {
	f := newFixture(t)
	f.respond(200, rejectedBody)

	result, err := f.service.Submit(context.Background(), invoiceRequest("0001"))

	require.NoError(t, err)
	assert.Equal(t, coresubmission.StatusRejected, result.Status)
	assert.Equal(t, []string{"Regla FAD06"}, result.Messages)
	assert.Equal(t, 0, f.documents.Records())
	assert.Empty(t, f.archived)
}

func TestSubmit_MalformedRecordNeverReachesGateway(t *testing.T) {
	f := newFixture(t)
	req := invoiceRequest("0001")
	req.Segments.Totals = "1000|abc"

	_, err := f.service.Submit(context.Background(), req)

	assert.True(t, record.IsMalformed(err))
	assert.Empty(t, f.gateway.Submitted())
}

func TestSubmit_ResolutionNotFound(t *testing.T) {
	f := newFixture(t)
	req := invoiceRequest("0001")
	req.Segments.Header = "X|Y|10|FACT0001|2024-01-15 10:30:00|999"

	_, err := f.service.Submit(context.Background(), req)

	assert.ErrorIs(t, err, resolution.ErrNotFound)
	assert.Empty(t, f.gateway.Submitted())
}

func TestSubmit_LockContention(t *testing.T) {
	f := newFixture(t)
	f.locker.err = coresubmission.ErrDocumentLocked

	result, err := f.service.Submit(context.Background(), invoiceRequest("0001"))

	require.NoError(t, err)
	assert.Equal(t, coresubmission.StatusTransportFailure, result.Status)
	assert.Equal(t, coresubmission.KindTransient, result.Failure.Kind)
	assert.Empty(t, f.gateway.Submitted())
}

func TestSubmit_LockBackendDownStillSubmits(t *testing.T) {
	f := newFixture(t)
	f.locker.err = errors.New("dial tcp: connection refused")
	f.respond(200, acceptedBody)

	result, err := f.service.Submit(context.Background(), invoiceRequest("0001"))

	require.NoError(t, err)
	assert.Equal(t, coresubmission.StatusAccepted, result.Status)
	assert.Len(t, f.gateway.Submitted(), 1)
}

func TestSubmit_BadCredentialsInvalidatesToken(t *testing.T) {
	f := newFixture(t)
	f.gateway.SubmitFunc = func(ctx context.Context, doc document.Document, token string) (coresubmission.RawResponse, error) {
		return coresubmission.RawResponse{}, &coresubmission.TransportError{Kind: coresubmission.KindBadCredentials, StatusCode: 401}
	}

	result, err := f.service.Submit(context.Background(), invoiceRequest("0001"))

	require.NoError(t, err)
	assert.Equal(t, coresubmission.StatusTransportFailure, result.Status)
	assert.Equal(t, coresubmission.KindBadCredentials, result.Failure.Kind)
	assert.Equal(t, []string{taxpayer}, f.credentials.invalidated)
	assert.Equal(t, 1, f.locker.released)
}

func TestSubmit_CredentialsError(t *testing.T) {
	f := newFixture(t)
	f.credentials.err = errors.New("company not found")

	_, err := f.service.Submit(context.Background(), invoiceRequest("0001"))

	assert.ErrorIs(t, err, f.credentials.err)
	assert.Empty(t, f.gateway.Submitted())
}

func TestArtifact(t *testing.T) {
	f := newFixture(t)

	pdf, err := f.service.Artifact(context.Background(), document.Reference{
		TaxpayerID: taxpayer, Type: document.Invoice, Prefix: "FACT", Number: "0001",
	})

	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), pdf)
}
