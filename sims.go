package esimlink

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/esimlink/esimlink-go/apierror"
	"github.com/esimlink/esimlink-go/internal/resource"
)

const simsPath = "/v2/sims"

// Sim is an issued eSIM.
type Sim struct {
	ID                 int64  `json:"id"`
	ICCID              string `json:"iccid"`
	LPA                string `json:"lpa"`
	MatchingID         string `json:"matching_id"`
	QRCode             string `json:"qrcode"`
	QRCodeURL          string `json:"qrcode_url"`
	DirectAppleInstall string `json:"direct_apple_installation_url"`
	CreatedAt          string `json:"created_at"`
}

// SimUsage reports remaining and consumed allowances for one eSIM.
type SimUsage struct {
	Status         string `json:"status"`
	Remaining      int64  `json:"remaining"`
	Total          int64  `json:"total"`
	RemainingVoice int64  `json:"remaining_voice"`
	RemainingText  int64  `json:"remaining_text"`
	ExpiredAt      string `json:"expired_at"`
	IsUnlimited    bool   `json:"is_unlimited"`
}

// validICCID requires 18 to 22 digits.
func validICCID(iccid string) error {
	if len(iccid) < 18 || len(iccid) > 22 {
		return apierror.New(apierror.CategoryConfig, "iccid must be between 18 and 22 digits")
	}
	for _, r := range iccid {
		if r < '0' || r > '9' {
			return apierror.New(apierror.CategoryConfig, "iccid must contain only digits")
		}
	}
	return nil
}

// Sims lists issued eSIMs, newest first.
func (c *Client) Sims(ctx context.Context, limit, page int) ([]Sim, error) {
	params := map[string]string{}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}
	if page > 0 {
		params["page"] = strconv.Itoa(page)
	}

	var resp struct {
		Data []Sim `json:"data"`
	}
	if err := c.get(ctx, simsPath, params, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Usage returns current usage for the eSIM with the given ICCID.
func (c *Client) Usage(ctx context.Context, iccid string) (*SimUsage, error) {
	if err := validICCID(iccid); err != nil {
		return nil, err
	}

	var resp struct {
		Data SimUsage `json:"data"`
	}
	if err := c.get(ctx, simUsagePath(iccid), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// UsageResult pairs an ICCID with its usage lookup outcome.
type UsageResult struct {
	ICCID string
	Usage *SimUsage
	Err   error
}

// BulkUsage fetches usage for many eSIMs concurrently. Results align
// positionally with the input ICCIDs; each slot succeeds or fails on its
// own.
func (c *Client) BulkUsage(ctx context.Context, iccids []string) ([]UsageResult, error) {
	if len(iccids) == 0 {
		return nil, apierror.New(apierror.CategoryConfig, "bulk usage needs at least one iccid")
	}

	specs := make([]resource.Spec, len(iccids))
	for i, iccid := range iccids {
		if err := validICCID(iccid); err != nil {
			return nil, err
		}
		specs[i] = resource.Spec{
			Method: http.MethodGet,
			Path:   simUsagePath(iccid),
			Tag:    iccid,
		}
	}

	results := c.authorized.DoAll(ctx, specs)

	out := make([]UsageResult, len(results))
	for i, result := range results {
		out[i] = UsageResult{ICCID: iccids[i]}

		if result.Err != nil {
			out[i].Err = result.Err
			continue
		}

		var resp struct {
			Data SimUsage `json:"data"`
		}
		if err := result.JSON(&resp); err != nil {
			out[i].Err = err
			continue
		}
		out[i].Usage = &resp.Data
	}

	return out, nil
}

// PackageHistory lists the packages applied to the eSIM over its lifetime.
func (c *Client) PackageHistory(ctx context.Context, iccid string) ([]Package, error) {
	if err := validICCID(iccid); err != nil {
		return nil, err
	}

	var resp struct {
		Data []Package `json:"data"`
	}
	if err := c.cachedGet(ctx, simsPath+"/"+iccid+"/packages", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// InstallationInstructions holds device setup steps for an eSIM, localized
// to the requested language.
type InstallationInstructions struct {
	Language string             `json:"language"`
	IOS      []InstructionSteps `json:"ios"`
	Android  []InstructionSteps `json:"android"`
}

// InstructionSteps is one installation method with its ordered steps.
type InstructionSteps struct {
	Model   string            `json:"model"`
	Version string            `json:"version"`
	Steps   map[string]string `json:"steps"`
}

// Instructions fetches installation instructions for the eSIM with the
// given ICCID. The language is an ISO 639-1 code; empty selects the API
// default.
func (c *Client) Instructions(ctx context.Context, iccid, language string) (*InstallationInstructions, error) {
	if err := validICCID(iccid); err != nil {
		return nil, err
	}

	spec := resource.Spec{
		Method: http.MethodGet,
		Path:   simsPath + "/" + iccid + "/instructions",
	}
	if language != "" {
		spec.Header = http.Header{"Accept-Language": {language}}
	}

	result := c.authorized.Do(ctx, spec)
	if result.Err != nil {
		return nil, result.Err
	}

	var resp struct {
		Data InstallationInstructions `json:"data"`
	}
	if err := result.JSON(&resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func simUsagePath(iccid string) string {
	return fmt.Sprintf("%s/%s/usage", simsPath, iccid)
}
