package document

// Identity is the business printed in the document header.
type Identity struct {
	Name         string
	Registration string
	Phone        string
}

var DefaultIdentity = Identity{
	Name:         "RAIATEA RENT CAR",
	Registration: "RCS: 07238B - NR TAHITI: 834119",
	Phone:        "GSM: +689 87-313262",
}

type labels struct {
	Airport          string
	Title            string
	RecordID         string
	SubmittedAt      string
	MainDriver       string
	AdditionalDriver string
	CreditCard       string
	AdditionalCard   string
	Name             string
	Firstname        string
	Address          string
	Nationality      string
	BirthDate        string
	BirthPlace       string
	Phone            string
	Email            string
	License          string
	IssueDate        string
	ValidityDate     string
	IssuePlace       string
	Passport         string
	PassportValidity string
	CardNumber       string
	CardExpiry       string
	CardHolder       string
	FinesTitle       string
	FinesText        string
	DataTitle        string
	DataText         string
	TermsTitle       string
	TermsText        string
	Accepted         string
	Signature        string
	Date             string
	ExtraTitle       string
	Page             string
}

var texts = map[string]labels{
	"fr": {
		Airport:          "Aéroport de Raiatea",
		Title:            "FICHE DE RENSEIGNEMENT CLIENT",
		RecordID:         "Référence",
		SubmittedAt:      "Soumis le",
		MainDriver:       "CONDUCTEUR PRINCIPAL",
		AdditionalDriver: "CONDUCTEUR ADDITIONNEL",
		CreditCard:       "CARTE DE CRÉDIT",
		AdditionalCard:   "CARTE DE CRÉDIT SUPPLÉMENTAIRE",
		Name:             "Nom",
		Firstname:        "Prénom(s)",
		Address:          "Adresse",
		Nationality:      "Nationalité",
		BirthDate:        "Date de naissance",
		BirthPlace:       "Lieu de naissance",
		Phone:            "Téléphone",
		Email:            "Email",
		License:          "N° du permis de conduire",
		IssueDate:        "Date d'émission",
		ValidityDate:     "Date de validité",
		IssuePlace:       "Lieu d'émission",
		Passport:         "N° de passeport",
		PassportValidity: "Validité du passeport",
		CardNumber:       "Numéro",
		CardExpiry:       "Date d'expiration",
		CardHolder:       "Titulaire",
		FinesTitle:       "INFORMATIONS SUR LES AMENDES",
		FinesText:        "Nous vous informons que la société SARL RAIATEA RENT A CAR ne peut être tenue responsable des amendes reçues dans le cadre de la location. Vous autorisez la société RAIATEA RENT CAR à débiter votre carte de crédit du montant de l'amende, majorée de frais de dossier forfaitaire de 3000 FCP au cas où ce montant serait réclamé à RAIATEA RENT CAR par les autorités compétentes.",
		DataTitle:        "TRAITEMENT DES DONNÉES PERSONNELLES",
		DataText:         "J'accepte le traitement de mes données personnelles comme décrit dans le formulaire.",
		TermsTitle:       "CONDITIONS GÉNÉRALES",
		TermsText:        "J'ai lu et j'accepte les conditions générales de location.",
		Accepted:         "Accepté",
		Signature:        "SIGNATURE",
		Date:             "Date",
		ExtraTitle:       "INFORMATIONS COMPLÉMENTAIRES",
		Page:             "Page",
	},
	"en": {
		Airport:          "Raiatea Airport",
		Title:            "CLIENT INFORMATION FORM",
		RecordID:         "Reference",
		SubmittedAt:      "Submitted on",
		MainDriver:       "MAIN DRIVER",
		AdditionalDriver: "ADDITIONAL DRIVER",
		CreditCard:       "CREDIT CARD",
		AdditionalCard:   "ADDITIONAL CREDIT CARD",
		Name:             "Name",
		Firstname:        "Firstname(s)",
		Address:          "Address",
		Nationality:      "Nationality",
		BirthDate:        "Birth date",
		BirthPlace:       "Birth place",
		Phone:            "Phone",
		Email:            "Email",
		License:          "Driver's license number",
		IssueDate:        "Issue date",
		ValidityDate:     "Validity date",
		IssuePlace:       "Issue place",
		Passport:         "Passport number",
		PassportValidity: "Passport validity",
		CardNumber:       "Number",
		CardExpiry:       "Expiry date",
		CardHolder:       "Holder",
		FinesTitle:       "FINES INFORMATION",
		FinesText:        "Please note that SARL RAIATEA RENT A CAR cannot be held responsible for fines received during the rental period. You authorize RAIATEA RENT CAR to debit your credit card for the fine amount, plus a flat administrative fee of 3000 XPF, if this amount is claimed from RAIATEA RENT CAR by the competent authorities.",
		DataTitle:        "PERSONAL DATA PROCESSING",
		DataText:         "I consent to the processing of my personal data as described in the form.",
		TermsTitle:       "TERMS AND CONDITIONS",
		TermsText:        "I have read and accept the general rental terms and conditions.",
		Accepted:         "Accepted",
		Signature:        "SIGNATURE",
		Date:             "Date",
		ExtraTitle:       "ADDITIONAL INFORMATION",
		Page:             "Page",
	},
}

func textsFor(lang string) labels {
	if l, ok := texts[lang]; ok {
		return l
	}
	return texts["fr"]
}

func yesNo(b bool) string {
	if b {
		return "Oui/Yes"
	}
	return "Non/No"
}
