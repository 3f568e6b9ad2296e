package registration

import "healthfirst/internal/validate"

// validateProvider runs every field validator, normalizing the input in
// place and accumulating all violations rather than stopping at the first.
func validateProvider(in *ProviderInput) validate.FieldErrors {
	fe := make(validate.FieldErrors)

	var reasons []string
	in.FirstName, reasons = validate.Name(in.FirstName, "First name")
	fe.Add("first_name", reasons...)

	in.LastName, reasons = validate.Name(in.LastName, "Last name")
	fe.Add("last_name", reasons...)

	in.Email, reasons = validate.Email(in.Email)
	fe.Add("email", reasons...)

	in.PhoneNumber, reasons = validate.Phone(in.PhoneNumber)
	fe.Add("phone_number", reasons...)

	in.Specialization, reasons = validate.Specialization(in.Specialization)
	fe.Add("specialization", reasons...)

	in.LicenseNumber, reasons = validate.License(in.LicenseNumber)
	fe.Add("license_number", reasons...)

	fe.Add("years_of_experience", validate.YearsOfExperience(in.YearsOfExperience)...)

	validateAddress(&in.ClinicAddress, "clinic_address", fe)
	validatePassword(in.Password, in.ConfirmPassword, fe)
	return fe
}

func validatePatient(in *PatientInput) validate.FieldErrors {
	fe := make(validate.FieldErrors)

	var reasons []string
	in.FirstName, reasons = validate.Name(in.FirstName, "First name")
	fe.Add("first_name", reasons...)

	in.LastName, reasons = validate.Name(in.LastName, "Last name")
	fe.Add("last_name", reasons...)

	in.Email, reasons = validate.Email(in.Email)
	fe.Add("email", reasons...)

	in.PhoneNumber, reasons = validate.Phone(in.PhoneNumber)
	fe.Add("phone_number", reasons...)

	validateAddress(&in.Address, "address", fe)
	validatePassword(in.Password, in.ConfirmPassword, fe)

	if ec := in.EmergencyContact; ec != nil {
		ec.Name, reasons = validate.Name(ec.Name, "Emergency contact name")
		fe.Add("emergency_contact.name", reasons...)
		ec.Phone, reasons = validate.Phone(ec.Phone)
		fe.Add("emergency_contact.phone", reasons...)
	}
	return fe
}

func validateAddress(addr *AddressInput, prefix string, fe validate.FieldErrors) {
	var reasons []string
	if addr.Street == "" {
		fe.Add(prefix+".street", "Street address is required.")
	}
	addr.City, reasons = validate.Name(addr.City, "City")
	fe.Add(prefix+".city", reasons...)

	addr.State, reasons = validate.Name(addr.State, "State")
	fe.Add(prefix+".state", reasons...)

	addr.Zip, reasons = validate.Zip(addr.Zip)
	fe.Add(prefix+".zip", reasons...)
}

func validatePassword(password, confirm string, fe validate.FieldErrors) {
	report := validate.Password(password)
	fe.Add("password", report.Violations...)
	if !validate.PasswordsMatch(password, confirm) {
		fe.Add("confirm_password", "Passwords do not match.")
	}
}
