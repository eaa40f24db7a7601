/*
Package req parses the payloads of HTTP requests into application structs.

JSON bodies go through [Parser.ParseBody], query parameters through [Parser.ParseQueryParams]
and file uploads through [Parser.ParseMultipart].
Structs declare how payload keys map onto fields with json or schema struct tags,
and the rules the data must meet with validate struct tags.

Failures translate into portfolio sentinel errors;
data breaking validation rules returns [ValidationErrors], which unwrap to portfolio.ErrNotValid.
*/
package req
