package registry

// Bootstrap returns the dataset a fresh registry starts with. Each call
// returns a new slice.
func Bootstrap() []Patient {
	return []Patient{
		{
			ID:        "RG-2025-001",
			Name:      "Ruben George",
			Gender:    "Male",
			Age:       36,
			BirthDate: "1989-05-12",
			Weight:    "82kg",
			Height:    "182cm",
			BloodType: BloodOPos,
			Treatment: "Chronic Shoulder Pain",
			Label:     LabelUrgent,
			Status:    StatusInTreatment,
			Image:     "https://xsgames.co/randomusers/assets/avatars/male/1.jpg",
			Diagnosis: "Left shoulder injury with suspected rotator cuff tear. No fractures detected on X-ray.",
			LastVisit: "2025-11-09",
		},
		{
			ID:        "AJ-2025-012",
			Name:      "Alice Johnson",
			Gender:    "Female",
			Age:       28,
			BirthDate: "1997-08-24",
			Weight:    "65kg",
			Height:    "168cm",
			BloodType: BloodANeg,
			Treatment: "Post-Op Recovery",
			Label:     LabelRoutine,
			Status:    StatusRecovered,
			Image:     "https://xsgames.co/randomusers/assets/avatars/female/2.jpg",
			Diagnosis: "Post-operative follow-up for ACL reconstruction. Wound healing progressing normally.",
			LastVisit: "2025-11-08",
		},
		{
			ID:        "BS-2025-045",
			Name:      "Bob Smith",
			Gender:    "Male",
			Age:       52,
			BirthDate: "1973-02-15",
			Weight:    "95kg",
			Height:    "175cm",
			BloodType: BloodBPos,
			Treatment: "Fractured Tibia",
			Label:     LabelCritical,
			Status:    StatusEmergency,
			Image:     "https://xsgames.co/randomusers/assets/avatars/male/4.jpg",
			Diagnosis: "Compound fracture of the right tibia. Requires immediate surgical intervention.",
			LastVisit: "2025-11-10",
		},
		{
			ID:        "DG-2025-102",
			Name:      "David Garcia",
			Gender:    "Male",
			Age:       44,
			BirthDate: "1981-11-30",
			Weight:    "88kg",
			Height:    "180cm",
			BloodType: BloodABPos,
			Treatment: "Rotator Cuff Repair",
			Label:     LabelUrgent,
			Status:    StatusSurgeryPending,
			Image:     "https://xsgames.co/randomusers/assets/avatars/male/12.jpg",
			Diagnosis: "Complete tear of the supraspinatus tendon. Scheduled for arthroscopic repair.",
			LastVisit: "2025-11-07",
		},
		{
			ID:        "EM-2025-156",
			Name:      "Eva Martinez",
			Gender:    "Female",
			Age:       39,
			BirthDate: "1986-04-18",
			Weight:    "70kg",
			Height:    "165cm",
			BloodType: BloodONeg,
			Treatment: "Joint Inflammation",
			Label:     LabelRoutine,
			Status:    StatusObservation,
			Image:     "https://xsgames.co/randomusers/assets/avatars/female/15.jpg",
			Diagnosis: "Systemic joint pain, possibly rheumatoid. Blood tests for inflammatory markers are pending.",
			LastVisit: "2025-11-06",
		},
		{
			ID:        "FW-2025-201",
			Name:      "Frank Wilson",
			Gender:    "Male",
			Age:       62,
			BirthDate: "1963-12-05",
			Weight:    "78kg",
			Height:    "172cm",
			BloodType: BloodAPos,
			Treatment: "Spinal Alignment",
			Label:     LabelRoutine,
			Status:    StatusTherapy,
			Image:     "https://xsgames.co/randomusers/assets/avatars/male/18.jpg",
			Diagnosis: "Chronic lower back pain localized in L4-L5. Progressing well with physical therapy sessions.",
			LastVisit: "2025-11-05",
		},
		{
			ID:        "GL-2025-245",
			Name:      "Grace Lee",
			Gender:    "Female",
			Age:       21,
			BirthDate: "2004-09-12",
			Weight:    "58kg",
			Height:    "170cm",
			BloodType: BloodBNeg,
			Treatment: "ACL Reconstruction",
			Label:     LabelCritical,
			Status:    StatusIntensiveCare,
			Image:     "https://xsgames.co/randomusers/assets/avatars/female/22.jpg",
			Diagnosis: "Post-trauma ACL and meniscus tear. Just transitioned from surgery to early-stage recovery monitoring.",
			LastVisit: "2025-11-10",
		},
	}
}
