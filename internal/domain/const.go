package domain

const (
	RequesterAddressCtxKey = "vsl-requesterAddress"
	SessionSubjectCtxKey   = "vsl-sessionSubject"
)

const (
	SessionCookieName = "vessel_session"
)
