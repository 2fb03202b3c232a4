package errors

import (
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"
)

const errorDomain = "marketd"

// GRPCStatus returns the status error carrying an ErrorInfo detail with the
// code name and the metadata of the error.
func (e *ErrorImpl[MT]) GRPCStatus() *status.Status {
	st := status.New(e.code.GrpcCode, e.Error())

	metadata := e.Metadata()
	metadata["message"] = e.Message()

	stWithDetails, err := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   e.code.Name,
		Domain:   errorDomain,
		Metadata: metadata,
	})
	if err != nil {
		return st
	}
	return stWithDetails
}

// FromStatus rebuilds the code name and metadata of an error received from a
// marketd server. It returns false if the status carries no ErrorInfo.
func FromStatus(st *status.Status) (string, map[string]string, bool) {
	for _, d := range st.Details() {
		info, ok := d.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != errorDomain {
			continue
		}
		return info.GetReason(), info.GetMetadata(), true
	}
	return "", nil, false
}
