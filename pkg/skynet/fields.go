package skynet

// field maps one caller parameter onto one vendor request field.
// Absent optional fields are sent as def, which is nil (JSON null) unless stated.
type field struct {
	param    string
	wire     string
	required bool
	def      any
}

func required(param, wire string) field {
	return field{param: param, wire: wire, required: true}
}

func optional(param, wire string) field {
	return field{param: param, wire: wire}
}

func withDefault(param, wire string, def any) field {
	return field{param: param, wire: wire, def: def}
}

// apply copies the mapped parameters into dst.
// It fails on the first required parameter that is missing.
func apply(dst map[string]any, p Params, fields []field) error {
	for _, f := range fields {
		v, ok := p.lookup(f.param)
		switch {
		case ok:
			dst[f.wire] = v
		case f.required:
			return &FieldError{Field: f.param}
		default:
			dst[f.wire] = f.def
		}
	}
	return nil
}

// checkRequired reports the first missing required parameter across tables.
func checkRequired(p Params, tables ...[]field) error {
	for _, fields := range tables {
		for _, f := range fields {
			if !f.required {
				continue
			}
			if _, ok := p.lookup(f.param); !ok {
				return &FieldError{Field: f.param}
			}
		}
	}
	return nil
}

var validateSuburbFields = []field{
	required("suburb", "suburb"),
	required("postal-code", "postalCode"),
}

var quoteFields = []field{
	required("collect-city", "FromCity"),
	required("deliver-city", "ToCity"),
	required("service-type", "ServiceType"),
	required("insurance-type", "InsuranceType"),
	optional("parcel-insurance", "InsuranceAmount"),
	optional("deliver-postcode", "DestinationPCode"),
}

var quoteParcelFields = []field{
	required("parcel-length", "parcel_length"),
	required("parcel-width", "parcel_breadth"),
	required("parcel-height", "parcel_height"),
	required("parcel-weight", "parcel_mass"),
}

var deliveryETAFields = []field{
	required("from-suburb", "FromSuburb"),
	required("from-postcode", "FromPostCode"),
	required("to-suburb", "ToSuburb"),
	required("to-postcode", "ToPostCode"),
	required("service-type", "ServiceType"),
}

var waybillFields = []field{
	optional("company-name", "CompanyName"),
	required("customer-reference", "CustomerReference"),
	optional("waybill-number", "WaybillNumber"),
	withDefault("generate-waybill-number", "GenerateWaybillNumber", false),
	required("service-type", "ServiceType"),
	required("collection-date", "CollectionDate"),
	optional("delivery-date", "DeliveryDate"),
	optional("instructions", "Instructions"),

	optional("from-address-name", "FromAddressName"),
	required("from-address-1", "FromAddress1"),
	optional("from-address-2", "FromAddress2"),
	optional("from-address-3", "FromAddress3"),
	optional("from-address-4", "FromAddress4"),
	required("from-suburb", "FromSuburb"),
	optional("from-city", "FromCity"),
	required("from-postcode", "FromPostCode"),
	optional("from-address-latitude", "FromAddressLatitude"),
	optional("from-address-longitude", "FromAddressLongitude"),
	optional("from-telephone", "FromTelephone"),
	optional("from-fax", "FromFax"),
	optional("from-office-telephone-number", "FromOfficeTelephonenumber"),
	optional("from-alternative-contact-name", "FromAlternativeContactName"),
	optional("from-alternative-contact-number", "FromAlternativeContactNumber"),
	optional("from-building-complex", "FromBuildingComplex"),

	optional("to-address-name", "ToAddressName"),
	required("to-address-1", "ToAddress1"),
	optional("to-address-2", "ToAddress2"),
	optional("to-address-3", "ToAddress3"),
	optional("to-address-4", "ToAddress4"),
	required("to-suburb", "ToSuburb"),
	optional("to-city", "ToCity"),
	required("to-postcode", "ToPostCode"),
	optional("to-address-latitude", "ToAddressLatitude"),
	optional("to-address-longitude", "ToAddressLongitude"),
	optional("to-telephone", "ToTelephone"),
	optional("to-fax", "ToFax"),
	optional("to-office-telephone-number", "ToOfficeTelephonenumber"),
	optional("to-alternative-contact-name", "ToAlternativeContactName"),
	optional("to-alternative-contact-number", "ToAlternativeContactNumber"),
	optional("to-building-complex", "ToBuildingComplex"),

	optional("ready-time", "ReadyTime"),
	optional("open-till", "OpenTill"),
	withDefault("insurance-type", "InsuranceType", "1"),
	withDefault("insurance-amount", "InsuranceAmount", "0"),
	withDefault("security", "Security", "N"),
	withDefault("offsite-collection", "OffSiteCollection", false),
}

var waybillParcelFields = []field{
	required("parcel-length", "parcel_length"),
	required("parcel-width", "parcel_breadth"),
	required("parcel-height", "parcel_height"),
	required("parcel-weight", "parcel_mass"),
	optional("parcel-description", "parcel_description"),
	required("parcel-reference", "parcel_reference"),
}

// singleParcel builds the one-element ParcelList the vendor expects.
func singleParcel(p Params, fields []field) ([]map[string]any, error) {
	parcel := map[string]any{"parcel_number": "1"}
	if err := apply(parcel, p, fields); err != nil {
		return nil, err
	}
	return []map[string]any{parcel}, nil
}
