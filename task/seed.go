package task

// Seed returns the sample tasks the board starts with: four Dconsul posts,
// one in each of video_done, wording_approve, need_approval and draft.
func Seed() List {
	return NewList(
		Task{
			ID:            1,
			BrandID:       "dconsul",
			Title:         "Tips Pajak Tahunan untuk UMKM",
			Type:          TypeReels,
			Date:          "2023-10-05",
			Status:        StatusVideoDone,
			VisualDueDate: "2023-09-25",
			Script:        "Scene 1: Host masuk frame, bawa tumpukan kertas. \nScene 2: Text overlay \"Pusing lapor pajak?\". \nScene 3: Host senyum, tunjuk aplikasi.",
			Source:        "UU PPh Terbaru",
			FileLink:      "https://example.com/file-final-v1",
			Caption:       "Sudah lapor pajak? Jangan sampai telat ya! Berikut tips mudahnya...",
			Image:         "https://images.unsplash.com/photo-1554224155-6726b3ff858f?auto=format&fit=crop&q=80&w=300&h=200",
		},
		Task{
			ID:            2,
			BrandID:       "dconsul",
			Title:         "Testimoni Klien - PT Maju Jaya",
			Type:          TypeFeed,
			Date:          "2023-10-07",
			Status:        StatusWordingApprove,
			VisualDueDate: "2023-09-30",
			Script:        "Slide 1: Foto Klien & Logo. \nSlide 2: Quote testimoni. \nSlide 3: Call to Action.",
			Source:        "Wawancara Client tgl 1 Okt",
			Caption:       "Terima kasih PT Maju Jaya atas kepercayaannya...",
			Feedback:      "Tolong logo digedein dikit ya.",
			ClientNotes:   "Logo di slide 1 kurang besar.",
			Image:         "https://images.unsplash.com/photo-1556761175-5973dc0f32e7?auto=format&fit=crop&q=80&w=300&h=200",
		},
		Task{
			ID:      3,
			BrandID: "dconsul",
			Title:   "QnA: Apa itu Konsultan Pajak?",
			Type:    TypeReels,
			Date:    "2023-10-10",
			Status:  StatusNeedApproval,
			Script:  "Host duduk santai. Q: Apa sih konsultan pajak? A: Teman bisnis kamu!",
			Source:  "Internal Knowledge Base",
			Caption: "Banyak yang tanya, sebenernya ngapain aja sih konsultan pajak?",
		},
		Task{
			ID:      4,
			BrandID: "dconsul",
			Title:   "Infografis PPh 21",
			Type:    TypeFeed,
			Date:    "2023-10-15",
			Status:  StatusDraft,
		},
	)
}
