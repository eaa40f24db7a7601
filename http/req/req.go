package req

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"reflect"

	"github.com/gorilla/schema"
	"github.com/xy-planning-network/portfolio"
)

// DefaultMaxMemory is the number of bytes of a multipart form held in memory,
// the rest spilling to temporary files.
const DefaultMaxMemory = 10 << 20

type Parser struct {
	decoder *schema.Decoder
	validator
}

func NewParser() *Parser {
	return &Parser{
		decoder:   newQueryParamDecoder(),
		validator: newValidator(),
	}
}

// ParseBody decodes into a pointer to a struct the JSON data in body.
// If successful, ParseBody runs validation against the contents,
// returning an ErrNotValid if the data fails validation rules.
//
// ParseBody reads all of body and it can't be read from again.
func (p *Parser) ParseBody(body io.Reader, structPtr any) error {
	var ourFault *json.InvalidUnmarshalError
	err := json.NewDecoder(body).Decode(structPtr)
	if errors.As(err, &ourFault) {
		return fmt.Errorf("http/req: %w: ParseBody called with non-pointer: %s", portfolio.ErrBadAny, err)
	}

	if errors.Is(err, io.EOF) {
		return fmt.Errorf("http/req: %w: request body is empty", portfolio.ErrMissingData)
	}

	if err != nil {
		return fmt.Errorf("http/req: %w: failed decoding request body: %s", portfolio.ErrBadFormat, err)
	}

	if err := p.validate(structPtr); err != nil {
		return fmt.Errorf("http/req: %T failed validation: %w", structPtr, err)
	}

	return nil
}

// ParseQueryParams decodes into a pointer to a struct the query param data in params.
// If successful, ParseQueryParams runs validation against the contents,
// returning an ErrNotValid if the data fails validation rules.
func (p *Parser) ParseQueryParams(params url.Values, structPtr any) error {
	if v := reflect.ValueOf(structPtr); v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("http/req: %w: ParseQueryParams called with %T, not a pointer to a struct", portfolio.ErrBadAny, structPtr)
	}

	if err := p.decoder.Decode(structPtr, params); err != nil {
		return fmt.Errorf("http/req: failed decoding request query params: %w", translateDecoderError(err))
	}

	if err := p.validate(structPtr); err != nil {
		return fmt.Errorf("http/req: %T failed validation: %w", structPtr, err)
	}

	return nil
}

// ParseMultipart retrieves the file uploaded under field in a multipart/form-data request.
// The caller closes the returned file.
//
// If r is not multipart or exceeds maxBytes, ErrBadFormat returns.
// If no file is uploaded under field, ValidationErrors return.
func (p *Parser) ParseMultipart(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) (multipart.File, *multipart.FileHeader, error) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	if err := r.ParseMultipartForm(DefaultMaxMemory); err != nil {
		return nil, nil, fmt.Errorf("http/req: %w: failed parsing multipart form: %s", portfolio.ErrBadFormat, err)
	}

	f, fh, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, fmt.Errorf("http/req: %w", ValidationErrors{{Field: field, Rule: "required; file"}})
	}

	if err != nil {
		return nil, nil, fmt.Errorf("http/req: %w: %s", portfolio.ErrBadFormat, err)
	}

	return f, fh, nil
}
