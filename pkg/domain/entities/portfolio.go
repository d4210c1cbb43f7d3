package entities

// Portfolio is a seller's product list as read from an upload
type Portfolio struct {
	Products []ProductInput

	// HasFeeColumn reports whether the upload supplied resolved fees and VAT
	HasFeeColumn bool
}
